package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/internal/schedule"
)

type fakeBooking struct {
	booked      *appointments.Appointment
	bookErr     error
	bookReq     appointments.BookingRequest
	cancelled   *appointments.Appointment
	cancelErr   error
	rescheduled *appointments.Appointment
	reschedErr  error
	latest      *appointments.Appointment
	lookupErr   error
	slots       []schedule.Slot
	slotsErr    error
}

func (f *fakeBooking) Book(_ context.Context, req appointments.BookingRequest) (*appointments.Appointment, error) {
	f.bookReq = req
	return f.booked, f.bookErr
}

func (f *fakeBooking) Cancel(context.Context, string) (*appointments.Appointment, error) {
	return f.cancelled, f.cancelErr
}

func (f *fakeBooking) Reschedule(context.Context, string, time.Time) (*appointments.Appointment, error) {
	return f.rescheduled, f.reschedErr
}

func (f *fakeBooking) Lookup(context.Context, string) (*appointments.Appointment, error) {
	return f.latest, f.lookupErr
}

func (f *fakeBooking) OpenSlots(context.Context, int) ([]schedule.Slot, error) {
	return f.slots, f.slotsErr
}

func (f *fakeBooking) Location() *time.Location { return time.UTC }

type fakeNotifier struct {
	name, phone, reason string
	err                 error
}

func (f *fakeNotifier) AlertTeam(_ context.Context, name, phone, reason string) error {
	f.name, f.phone, f.reason = name, phone, reason
	return f.err
}

type fakeToolSMS struct {
	to, body string
	err      error
}

func (f *fakeToolSMS) SendSMS(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to, f.body = to, body
	return nil
}

type fakeDedupe struct {
	seen map[string]bool
	err  error
}

func (f *fakeDedupe) MarkProcessed(_ context.Context, provider, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := provider + ":" + id
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func postTool(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Body.Len() == 0 {
		return rec, ""
	}
	var resp struct {
		Results []struct {
			ToolCallID string `json:"toolCallId"`
			Result     string `json:"result"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	return rec, resp.Results[0].Result
}

func toolBody(id, args string) string {
	return `{"message":{"toolCalls":[{"id":"` + id + `","function":{"name":"t","arguments":` + args + `}}],"call":{"customer":{"number":"+15125550111"}}}}`
}

func TestBookHandlerSuccess(t *testing.T) {
	booking := &fakeBooking{
		booked: &appointments.Appointment{
			ID:          uuid.New(),
			ClientName:  "Dana",
			ServiceType: "Botox",
			Start:       time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
			Status:      appointments.StatusConfirmed,
		},
	}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking})

	rec, result := postTool(t, h.Book(), toolBody("call_1",
		`{"name":"Dana","service":"Botox","dateTime":"2026-03-03T15:00:00"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, result, "Botox")
	assert.Contains(t, result, "Tuesday, March 3 at 3:00 PM")
	assert.Equal(t, "Dana", booking.bookReq.ClientName)
	assert.Equal(t, "+15125550111", booking.bookReq.ClientPhone)
}

func TestBookHandlerMissingToolCallID(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	rec, _ := postTool(t, h.Book(), `{"message":{"functionCall":{"name":"book","parameters":{"dateTime":"2026-03-03T15:00:00"}}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestBookHandlerSlotTaken(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{bookErr: appointments.ErrSlotTaken}})

	rec, result := postTool(t, h.Book(), toolBody("call_1", `{"dateTime":"2026-03-03T15:00:00"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "I apologize, but that time slot was just taken. Please ask for a different time.", result)
}

func TestBookHandlerStorageError(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{bookErr: appointments.ErrStorageFailure}})

	rec, result := postTool(t, h.Book(), toolBody("call_1", `{"dateTime":"2026-03-03T15:00:00"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "There was a technical error booking the appointment.", result)
}

func TestBookHandlerMissingDateTime(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	_, result := postTool(t, h.Book(), toolBody("call_1", `{"name":"Dana"}`))
	assert.Contains(t, result, "date and time")
}

func TestToolDedupeReplay(t *testing.T) {
	booking := &fakeBooking{
		booked: &appointments.Appointment{ServiceType: "Botox", Start: time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)},
	}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking, Dedupe: &fakeDedupe{}})
	body := toolBody("call_dup", `{"dateTime":"2026-03-03T15:00:00"}`)

	_, first := postTool(t, h.Book(), body)
	assert.Contains(t, first, "Botox")

	rec, replay := postTool(t, h.Book(), body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "I'm already taking care of that for you.", replay)
}

func TestToolDedupeFailsOpen(t *testing.T) {
	booking := &fakeBooking{
		booked: &appointments.Appointment{ServiceType: "Botox", Start: time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)},
	}
	h := NewToolHandler(ToolHandlerConfig{
		Booking: booking,
		Dedupe:  &fakeDedupe{err: context.DeadlineExceeded},
	})

	_, result := postTool(t, h.Book(), toolBody("call_1", `{"dateTime":"2026-03-03T15:00:00"}`))
	assert.Contains(t, result, "Botox")
}

func TestCheckAvailabilityListsSlots(t *testing.T) {
	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	booking := &fakeBooking{slots: []schedule.Slot{
		{Start: start, End: start.Add(30 * time.Minute)},
		{Start: start.Add(time.Hour), End: start.Add(90 * time.Minute)},
	}}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking})

	_, result := postTool(t, h.CheckAvailability(), toolBody("call_1", `{}`))
	assert.Contains(t, result, "Tuesday, March 3 at 10:00 AM")
	assert.Contains(t, result, ", or ")
}

func TestCheckAvailabilityNothingOpen(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	_, result := postTool(t, h.CheckAvailability(), toolBody("call_1", `{}`))
	assert.Contains(t, result, "don't see anything open")
}

func TestCheckAvailabilityRequestedDayFull(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	booking := &fakeBooking{slots: []schedule.Slot{{Start: start, End: start.Add(30 * time.Minute)}}}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking})

	_, result := postTool(t, h.CheckAvailability(), toolBody("call_1", `{"date":"2026-03-03 9:00 AM"}`))
	assert.Contains(t, result, "anything open that day")
	assert.Contains(t, result, "Wednesday, March 4 at 10:00 AM")
}

func TestCancelHandler(t *testing.T) {
	booking := &fakeBooking{cancelled: &appointments.Appointment{
		ClientName:  "Dana",
		ServiceType: "Botox",
		Start:       time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
	}}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking})

	_, result := postTool(t, h.Cancel(), toolBody("call_1", `{}`))
	assert.Equal(t, "Done. I've cancelled Dana's Botox on Tuesday, March 3 at 3:00 PM.", result)
}

func TestCancelHandlerNoUpcoming(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{cancelErr: appointments.ErrNotFound}})

	_, result := postTool(t, h.Cancel(), toolBody("call_1", `{}`))
	assert.Equal(t, "I couldn't find an upcoming appointment for that phone number.", result)
}

func TestCancelHandlerNoPhone(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	_, result := postTool(t, h.Cancel(), `{"message":{"toolCalls":[{"id":"c","function":{"name":"cancel","arguments":{}}}]}}`)
	assert.Equal(t, "I need a phone number to find the appointment to cancel.", result)
}

func TestRescheduleHandlerSplitDateTime(t *testing.T) {
	booking := &fakeBooking{rescheduled: &appointments.Appointment{
		ServiceType: "Botox",
		Start:       time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
	}}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking})

	_, result := postTool(t, h.Reschedule(),
		`{"message":{"functionCall":{"name":"reschedule","parameters":{"date":"2026-03-03","time":"3:00 PM"}},"call":{"customer":{"number":"+15125550111"}}}}`)
	assert.Contains(t, result, "moved your Botox appointment")
}

func TestRescheduleHandlerConflict(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{reschedErr: appointments.ErrSlotTaken}})

	_, result := postTool(t, h.Reschedule(), toolBody("call_1", `{"dateTime":"2026-03-03T15:00:00"}`))
	assert.Contains(t, result, "already taken")
}

func TestLookupClientFound(t *testing.T) {
	booking := &fakeBooking{latest: &appointments.Appointment{ClientName: "Dana", ServiceType: "Botox"}}
	h := NewToolHandler(ToolHandlerConfig{Booking: booking})

	_, result := postTool(t, h.LookupClient(), toolBody("call_1", `{}`))
	assert.Equal(t, "found_client: Dana (Last service: Botox)", result)
}

func TestLookupClientNew(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{lookupErr: appointments.ErrNotFound}})

	_, result := postTool(t, h.LookupClient(), toolBody("call_1", `{}`))
	assert.Equal(t, "new_client", result)
}

func TestNotifyTeamHandler(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}, Notifier: notifier})

	_, result := postTool(t, h.NotifyTeam(), toolBody("call_1", `{"name":"Dana","reason":"pricing question"}`))
	assert.Equal(t, "I have messaged the team. They will contact you shortly.", result)
	assert.Equal(t, "Dana", notifier.name)
	assert.Equal(t, "+15125550111", notifier.phone)
	assert.Equal(t, "pricing question", notifier.reason)
}

func TestSendInsuranceHandler(t *testing.T) {
	sms := &fakeToolSMS{}
	h := NewToolHandler(ToolHandlerConfig{
		Booking:      &fakeBooking{},
		SMS:          sms,
		InsuranceURL: "https://lumen-secure-upload.com/upload",
	})

	_, result := postTool(t, h.SendInsurance(), toolBody("call_1", `{}`))
	assert.Equal(t, "Link sent successfully.", result)
	assert.Equal(t, "+15125550111", sms.to)
	assert.Contains(t, sms.body, "https://lumen-secure-upload.com/upload")
}

func TestTransferHandler(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	_, result := postTool(t, h.Transfer(), toolBody("call_1", `{}`))
	assert.Contains(t, result, "Transfer approved")
}

func TestIntentHandler(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader(`{"intent":"book_appointment","name":"Dana"}`))
	rec := httptest.NewRecorder()
	h.Intent()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp intentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Contains(t, resp.Message, "Dana")
}

func TestToolHandlerBadJSONStillSpeaks(t *testing.T) {
	h := NewToolHandler(ToolHandlerConfig{Booking: &fakeBooking{}})

	rec, result := postTool(t, h.Cancel(), `{broken`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, result, "something went wrong")
}
