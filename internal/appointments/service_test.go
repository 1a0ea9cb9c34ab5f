package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-aesthetics/receptionist/internal/schedule"
)

type fakeStore struct {
	inserted    []*Appointment
	insertErr   error
	busy        []schedule.Interval
	busyErr     error
	excludedID  uuid.UUID
	upcoming    *Appointment
	upcomingErr error
	latest      *Appointment
	cancelErr   error
	reschedErr  error
	verified    *Appointment
	verifyErr   error
	eventIDs    map[uuid.UUID]string
}

func (f *fakeStore) Insert(_ context.Context, a *Appointment) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, a)
	return nil
}

func (f *fakeStore) SetGoogleEventID(_ context.Context, id uuid.UUID, eventID string) error {
	if f.eventIDs == nil {
		f.eventIDs = map[uuid.UUID]string{}
	}
	f.eventIDs[id] = eventID
	return nil
}

func (f *fakeStore) BusyBetween(context.Context, time.Time, time.Time) ([]schedule.Interval, error) {
	return f.busy, f.busyErr
}

func (f *fakeStore) BusyBetweenExcluding(_ context.Context, _, _ time.Time, exclude uuid.UUID) ([]schedule.Interval, error) {
	f.excludedID = exclude
	return f.busy, f.busyErr
}

func (f *fakeStore) NextUpcomingByPhone(context.Context, string, time.Time) (*Appointment, error) {
	if f.upcomingErr != nil {
		return nil, f.upcomingErr
	}
	if f.upcoming == nil {
		return nil, ErrNotFound
	}
	return f.upcoming, nil
}

func (f *fakeStore) LatestByPhone(context.Context, string) (*Appointment, error) {
	if f.latest == nil {
		return nil, ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeStore) Cancel(context.Context, uuid.UUID) error { return f.cancelErr }

func (f *fakeStore) Reschedule(context.Context, uuid.UUID, time.Time, time.Time) error {
	return f.reschedErr
}

func (f *fakeStore) VerifyNextConfirmed(context.Context, string, time.Time) (*Appointment, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verified == nil {
		return nil, ErrNotFound
	}
	return f.verified, nil
}

type fakeCalendar struct {
	busy      []schedule.Interval
	busyErr   error
	insertErr error
	inserted  []CalendarEvent
}

func (f *fakeCalendar) BusyBetween(context.Context, time.Time, time.Time) ([]schedule.Interval, error) {
	return f.busy, f.busyErr
}

func (f *fakeCalendar) InsertEvent(_ context.Context, ev CalendarEvent) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, ev)
	return "evt-123", nil
}

type fakeSender struct {
	sent []string
	to   []string
	err  error
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *fakeStore, cal *fakeCalendar, sms *fakeSender) *Service {
	t.Helper()
	hours, err := schedule.NewHours(9, 17, 30, 7, "UTC")
	require.NoError(t, err)
	var calendar Calendar
	if cal != nil {
		calendar = cal
	}
	var sender SMSSender
	if sms != nil {
		sender = sms
	}
	return NewService(ServiceConfig{
		Store:        store,
		Calendar:     calendar,
		SMS:          sender,
		Hours:        hours,
		BusinessName: "Lumen Aesthetics",
		Now:          func() time.Time { return testNow },
	})
}

func TestBookAccepts(t *testing.T) {
	store := &fakeStore{}
	cal := &fakeCalendar{}
	sms := &fakeSender{}
	svc := newTestService(t, store, cal, sms)

	start := testNow.Add(24 * time.Hour)
	appt, err := svc.Book(context.Background(), BookingRequest{
		ClientName:  "Dana Reed",
		ClientPhone: "(512) 555-0111",
		ServiceType: "Botox",
		Start:       start,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, start, appt.Start)
	assert.Equal(t, start.Add(30*time.Minute), appt.End)
	assert.Equal(t, "+15125550111", appt.ClientPhone)

	require.Len(t, store.inserted, 1)
	require.Len(t, cal.inserted, 1)
	assert.Equal(t, "Botox for Dana Reed", cal.inserted[0].Summary)
	assert.Equal(t, "evt-123", appt.GoogleEventID)
	assert.Equal(t, "evt-123", store.eventIDs[appt.ID])

	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0], "Dana Reed")
	assert.Contains(t, sms.sent[0], "confirmed")
}

func TestBookDefaultsNameAndService(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil, nil)

	appt, err := svc.Book(context.Background(), BookingRequest{
		ClientPhone: "+15125550111",
		Start:       testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Valued Client", appt.ClientName)
	assert.Equal(t, "Consultation", appt.ServiceType)
}

func TestBookRejectsPastStart(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil, nil)

	for _, start := range []time.Time{{}, testNow.Add(-time.Minute), testNow.Add(-time.Hour)} {
		_, err := svc.Book(context.Background(), BookingRequest{Start: start})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestBookAcceptsStartExactlyNow(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil, nil)

	appt, err := svc.Book(context.Background(), BookingRequest{Start: testNow, ClientPhone: "512-555-0111"})
	require.NoError(t, err)
	assert.True(t, appt.Start.Equal(testNow))
	require.Len(t, store.inserted, 1)
}

func TestBookPreFilterRejectsBusySlot(t *testing.T) {
	start := testNow.Add(24 * time.Hour)
	store := &fakeStore{
		busy: []schedule.Interval{{Start: start.Add(15 * time.Minute), End: start.Add(45 * time.Minute)}},
	}
	svc := newTestService(t, store, nil, nil)

	_, err := svc.Book(context.Background(), BookingRequest{Start: start})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, store.inserted)
}

func TestBookStorageArbitratesRace(t *testing.T) {
	// The busy set looks clear but the insert loses the constraint race.
	store := &fakeStore{insertErr: ErrSlotTaken}
	svc := newTestService(t, store, nil, nil)

	_, err := svc.Book(context.Background(), BookingRequest{Start: testNow.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookToleratesCalendarFailure(t *testing.T) {
	store := &fakeStore{}
	cal := &fakeCalendar{busyErr: errors.New("calendar down"), insertErr: errors.New("calendar down")}
	sms := &fakeSender{}
	svc := newTestService(t, store, cal, sms)

	appt, err := svc.Book(context.Background(), BookingRequest{
		ClientPhone: "+15125550111",
		Start:       testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, appt.GoogleEventID)
	require.Len(t, sms.sent, 1)
}

func TestBookToleratesSMSFailure(t *testing.T) {
	store := &fakeStore{}
	sms := &fakeSender{err: errors.New("carrier down")}
	svc := newTestService(t, store, nil, sms)

	_, err := svc.Book(context.Background(), BookingRequest{
		ClientPhone: "+15125550111",
		Start:       testNow.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestCancelSendsNotice(t *testing.T) {
	upcoming := &Appointment{
		ID:          uuid.New(),
		ClientName:  "Dana Reed",
		ClientPhone: "+15125550111",
		Start:       testNow.Add(24 * time.Hour),
		Status:      StatusConfirmed,
	}
	store := &fakeStore{upcoming: upcoming}
	sms := &fakeSender{}
	svc := newTestService(t, store, nil, sms)

	appt, err := svc.Cancel(context.Background(), "512-555-0111")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appt.Status)
	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0], "cancelled")
}

func TestCancelNoUpcoming(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil, nil)

	_, err := svc.Cancel(context.Background(), "512-555-0111")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelRequiresPhone(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil, nil)

	_, err := svc.Cancel(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRescheduleExcludesOwnRow(t *testing.T) {
	upcoming := &Appointment{
		ID:          uuid.New(),
		ClientPhone: "+15125550111",
		ServiceType: "Botox",
		Start:       testNow.Add(24 * time.Hour),
		End:         testNow.Add(24*time.Hour + 30*time.Minute),
		Status:      StatusConfirmed,
	}
	store := &fakeStore{upcoming: upcoming}
	svc := newTestService(t, store, nil, nil)

	newStart := testNow.Add(48 * time.Hour)
	appt, err := svc.Reschedule(context.Background(), "512-555-0111", newStart)
	require.NoError(t, err)
	assert.Equal(t, upcoming.ID, store.excludedID)
	assert.Equal(t, newStart, appt.Start)
	assert.Equal(t, StatusConfirmed, appt.Status)
}

func TestRescheduleRejectsTakenWindow(t *testing.T) {
	upcoming := &Appointment{ID: uuid.New(), ClientPhone: "+15125550111", Start: testNow.Add(24 * time.Hour)}
	newStart := testNow.Add(48 * time.Hour)
	store := &fakeStore{
		upcoming: upcoming,
		busy:     []schedule.Interval{{Start: newStart, End: newStart.Add(30 * time.Minute)}},
	}
	svc := newTestService(t, store, nil, nil)

	_, err := svc.Reschedule(context.Background(), "512-555-0111", newStart)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestOpenSlotsMergesCalendarAndStore(t *testing.T) {
	dayStart := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		busy: []schedule.Interval{{Start: dayStart.Add(time.Hour), End: dayStart.Add(90 * time.Minute)}},
	}
	cal := &fakeCalendar{
		busy: []schedule.Interval{{Start: dayStart.Add(30 * time.Minute), End: dayStart.Add(time.Hour)}},
	}
	svc := newTestService(t, store, cal, nil)

	slots, err := svc.OpenSlots(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	// 9:30 and 10:00 are busy across the two sources.
	assert.Equal(t, dayStart, slots[0].Start)
	assert.Equal(t, dayStart.Add(90*time.Minute), slots[1].Start)
}

func TestLookupRequiresPhone(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil, nil)

	_, err := svc.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyByPhone(t *testing.T) {
	verified := &Appointment{ID: uuid.New(), Status: StatusClientVerified}
	store := &fakeStore{verified: verified}
	svc := newTestService(t, store, nil, nil)

	appt, err := svc.VerifyByPhone(context.Background(), "+15125550111")
	require.NoError(t, err)
	assert.Equal(t, StatusClientVerified, appt.Status)
}
