package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lumen-aesthetics/receptionist/internal/messaging"
	"github.com/lumen-aesthetics/receptionist/internal/observability/metrics"
	"github.com/lumen-aesthetics/receptionist/internal/schedule"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

var apptTracer = otel.Tracer("receptionist.internal.appointments")

// Store is the persistence surface the service needs. *Repository
// implements it; tests supply fakes.
type Store interface {
	Insert(ctx context.Context, a *Appointment) error
	SetGoogleEventID(ctx context.Context, id uuid.UUID, eventID string) error
	BusyBetween(ctx context.Context, from, to time.Time) ([]schedule.Interval, error)
	BusyBetweenExcluding(ctx context.Context, from, to time.Time, exclude uuid.UUID) ([]schedule.Interval, error)
	NextUpcomingByPhone(ctx context.Context, phoneDigits string, now time.Time) (*Appointment, error)
	LatestByPhone(ctx context.Context, phoneDigits string) (*Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) error
	VerifyNextConfirmed(ctx context.Context, phoneDigits string, now time.Time) (*Appointment, error)
}

// CalendarEvent is the payload for the external calendar collaborator.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Calendar is the external calendar collaborator. Both calls are
// best-effort auxiliaries: the appointments table stays authoritative.
type Calendar interface {
	BusyBetween(ctx context.Context, from, to time.Time) ([]schedule.Interval, error)
	InsertEvent(ctx context.Context, ev CalendarEvent) (string, error)
}

// SMSSender dispatches a single outbound text.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service arbitrates bookings against the shared calendar.
type Service struct {
	store        Store
	calendar     Calendar
	sms          SMSSender
	hours        schedule.Hours
	businessName string
	logger       *logging.Logger
	metrics      *metrics.BookingMetrics
	now          func() time.Time
}

// ServiceConfig configures the booking service.
type ServiceConfig struct {
	Store        Store
	Calendar     Calendar
	SMS          SMSSender
	Hours        schedule.Hours
	BusinessName string
	Logger       *logging.Logger
	Metrics      *metrics.BookingMetrics
	Now          func() time.Time
}

// NewService constructs a booking service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		panic("appointments: store required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BusinessName == "" {
		cfg.BusinessName = "Lumen Aesthetics"
	}
	return &Service{
		store:        cfg.Store,
		calendar:     cfg.Calendar,
		sms:          cfg.SMS,
		hours:        cfg.Hours,
		businessName: cfg.BusinessName,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		now:          cfg.Now,
	}
}

// SlotDuration returns the configured appointment length.
func (s *Service) SlotDuration() time.Duration {
	return time.Duration(s.hours.SlotMinutes) * time.Minute
}

// Location returns the business timezone.
func (s *Service) Location() *time.Location {
	if s.hours.Location == nil {
		return time.UTC
	}
	return s.hours.Location
}

// OpenSlots enumerates open slots against a freshly loaded busy set.
func (s *Service) OpenSlots(ctx context.Context, maxResults int) ([]schedule.Slot, error) {
	now := s.now()
	horizon := now.AddDate(0, 0, s.hours.LookaheadDays+1)
	busy, err := s.busySet(ctx, now, horizon, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return schedule.ComputeOpenSlots(now, s.hours, busy, maxResults), nil
}

// BookingRequest captures the fields collected on the call.
type BookingRequest struct {
	ClientName  string
	ClientPhone string
	ClientEmail string
	ServiceType string
	Start       time.Time
}

// Book runs the conflict guard and persists the appointment exactly once.
// The in-memory overlap check over a fresh busy set is a fast pre-filter;
// the table's exclusion constraint is the authoritative arbiter, so two
// concurrent calls for the same window can never both be accepted.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.book")
	defer span.End()

	now := s.now()
	// Start == now stays bookable: ComputeOpenSlots offers the boundary slot.
	if req.Start.IsZero() || req.Start.Before(now) {
		return nil, ErrInvalidInput
	}
	if req.ClientName == "" {
		req.ClientName = "Valued Client"
	}
	if req.ServiceType == "" {
		req.ServiceType = "Consultation"
	}
	req.ClientPhone = messaging.NormalizePhone(req.ClientPhone)

	slot := schedule.Slot{Start: req.Start, End: req.Start.Add(s.SlotDuration())}
	span.SetAttributes(attribute.String("receptionist.slot_start", slot.Start.Format(time.RFC3339)))

	busy, err := s.busySet(ctx, slot.Start, slot.End, uuid.Nil)
	if err != nil {
		s.metrics.ObserveBooking("storage_error")
		return nil, err
	}
	if !schedule.SlotIsFree(slot, busy) {
		s.metrics.ObserveBooking("slot_taken")
		return nil, ErrSlotTaken
	}

	appt := &Appointment{
		ID:          uuid.New(),
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
		ServiceType: req.ServiceType,
		Start:       slot.Start,
		End:         slot.End,
		Status:      StatusConfirmed,
	}
	if err := s.store.Insert(ctx, appt); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBooking("slot_taken")
		} else {
			s.metrics.ObserveBooking("storage_error")
		}
		return nil, err
	}
	s.metrics.ObserveBooking("accepted")
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"service", appt.ServiceType,
		"start", appt.Start,
	)

	s.syncCalendar(ctx, appt)
	s.sendSMS(ctx, appt.ClientPhone,
		messaging.ConfirmationMessage(s.businessName, appt.ClientName, appt.ServiceType, appt.Start, s.Location()))

	return appt, nil
}

// Cancel marks the caller's next upcoming appointment cancelled.
func (s *Service) Cancel(ctx context.Context, phone string) (*Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	appt, err := s.findUpcoming(ctx, phone)
	if err != nil {
		return nil, err
	}
	if err := s.store.Cancel(ctx, appt.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt.Status = StatusCancelled
	s.metrics.ObserveBooking("cancelled")
	s.logger.Info("appointment cancelled", "appointment_id", appt.ID)

	s.sendSMS(ctx, appt.ClientPhone, messaging.CancellationMessage(s.businessName))
	return appt, nil
}

// Reschedule moves the caller's next upcoming appointment, re-running slot
// arbitration for the new window.
func (s *Service) Reschedule(ctx context.Context, phone string, newStart time.Time) (*Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	now := s.now()
	if newStart.IsZero() || !newStart.After(now) {
		return nil, ErrInvalidInput
	}

	appt, err := s.findUpcoming(ctx, phone)
	if err != nil {
		return nil, err
	}

	slot := schedule.Slot{Start: newStart, End: newStart.Add(s.SlotDuration())}
	busy, err := s.busySet(ctx, slot.Start, slot.End, appt.ID)
	if err != nil {
		return nil, err
	}
	if !schedule.SlotIsFree(slot, busy) {
		return nil, ErrSlotTaken
	}

	if err := s.store.Reschedule(ctx, appt.ID, slot.Start, slot.End); err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt.Start = slot.Start
	appt.End = slot.End
	appt.Status = StatusConfirmed
	s.logger.Info("appointment rescheduled", "appointment_id", appt.ID, "start", slot.Start)

	s.sendSMS(ctx, appt.ClientPhone,
		messaging.ConfirmationMessage(s.businessName, appt.ClientName, appt.ServiceType, appt.Start, s.Location()))
	return appt, nil
}

// Lookup returns the caller's most recent appointment row, if any.
func (s *Service) Lookup(ctx context.Context, phone string) (*Appointment, error) {
	digits := messaging.SignificantDigits(phone)
	if digits == "" {
		return nil, ErrInvalidInput
	}
	return s.store.LatestByPhone(ctx, digits)
}

// VerifyByPhone promotes the caller's next confirmed appointment after an
// SMS keyword confirmation.
func (s *Service) VerifyByPhone(ctx context.Context, phone string) (*Appointment, error) {
	digits := messaging.SignificantDigits(phone)
	if digits == "" {
		return nil, ErrInvalidInput
	}
	return s.store.VerifyNextConfirmed(ctx, digits, s.now())
}

func (s *Service) findUpcoming(ctx context.Context, phone string) (*Appointment, error) {
	digits := messaging.SignificantDigits(phone)
	if digits == "" {
		return nil, ErrInvalidInput
	}
	return s.store.NextUpcomingByPhone(ctx, digits, s.now())
}

// busySet merges calendar busy ranges with live appointment rows. Calendar
// sync is best-effort: a freebusy failure degrades to datastore-only and is
// logged, never surfaced.
func (s *Service) busySet(ctx context.Context, from, to time.Time, exclude uuid.UUID) ([]schedule.Interval, error) {
	var busy []schedule.Interval
	if s.calendar != nil {
		external, err := s.calendar.BusyBetween(ctx, from, to)
		if err != nil {
			s.logger.Warn("calendar freebusy failed, using datastore only", "error", err)
		} else {
			busy = append(busy, external...)
		}
	}

	var stored []schedule.Interval
	var err error
	if exclude == uuid.Nil {
		stored, err = s.store.BusyBetween(ctx, from, to)
	} else {
		stored, err = s.store.BusyBetweenExcluding(ctx, from, to, exclude)
	}
	if err != nil {
		return nil, err
	}
	return append(busy, stored...), nil
}

func (s *Service) syncCalendar(ctx context.Context, appt *Appointment) {
	if s.calendar == nil {
		return
	}
	eventID, err := s.calendar.InsertEvent(ctx, CalendarEvent{
		Summary:     appt.ServiceType + " for " + appt.ClientName,
		Description: "Phone: " + appt.ClientPhone + "\nEmail: " + appt.ClientEmail,
		Start:       appt.Start,
		End:         appt.End,
	})
	if err != nil {
		s.logger.Warn("calendar event insert failed", "error", err, "appointment_id", appt.ID)
		return
	}
	appt.GoogleEventID = eventID
	if err := s.store.SetGoogleEventID(ctx, appt.ID, eventID); err != nil {
		s.logger.Warn("failed to persist calendar event id", "error", err, "appointment_id", appt.ID)
	}
}

func (s *Service) sendSMS(ctx context.Context, to, body string) {
	if s.sms == nil || to == "" {
		return
	}
	if err := s.sms.SendSMS(ctx, to, body); err != nil {
		s.logger.Warn("sms send failed", "error", err, "to", to)
	}
}
