package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/internal/observability/metrics"
	"github.com/lumen-aesthetics/receptionist/internal/schedule"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// bookingService is the slice of the appointments service the tool surface
// needs.
type bookingService interface {
	Book(ctx context.Context, req appointments.BookingRequest) (*appointments.Appointment, error)
	Cancel(ctx context.Context, phone string) (*appointments.Appointment, error)
	Reschedule(ctx context.Context, phone string, newStart time.Time) (*appointments.Appointment, error)
	Lookup(ctx context.Context, phone string) (*appointments.Appointment, error)
	OpenSlots(ctx context.Context, maxResults int) ([]schedule.Slot, error)
	Location() *time.Location
}

// teamNotifier raises a callback request with the staff.
type teamNotifier interface {
	AlertTeam(ctx context.Context, clientName, clientPhone, reason string) error
}

// smsSender dispatches a single outbound text.
type smsSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// processedStore remembers tool-call IDs so webhook retries are answered
// without acting twice.
type processedStore interface {
	MarkProcessed(ctx context.Context, provider, id string) (bool, error)
}

// ToolHandler serves the voice assistant's webhook tools. Every response
// is HTTP 200 with a sentence the assistant can speak; failures become
// apologetic sentences, never error statuses.
type ToolHandler struct {
	booking      bookingService
	notifier     teamNotifier
	sms          smsSender
	dedupe       processedStore
	metrics      *metrics.WebhookMetrics
	logger       *logging.Logger
	businessName string
	insuranceURL string
	maxSlots     int
}

// ToolHandlerConfig configures the ToolHandler.
type ToolHandlerConfig struct {
	Booking      bookingService
	Notifier     teamNotifier
	SMS          smsSender
	Dedupe       processedStore
	Metrics      *metrics.WebhookMetrics
	Logger       *logging.Logger
	BusinessName string
	InsuranceURL string
	MaxSlots     int
}

// NewToolHandler creates the webhook tool handler.
func NewToolHandler(cfg ToolHandlerConfig) *ToolHandler {
	if cfg.Booking == nil {
		panic("handlers: booking service required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = 3
	}
	if cfg.BusinessName == "" {
		cfg.BusinessName = "Lumen Aesthetics"
	}
	return &ToolHandler{
		booking:      cfg.Booking,
		notifier:     cfg.Notifier,
		sms:          cfg.SMS,
		dedupe:       cfg.Dedupe,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		businessName: cfg.BusinessName,
		insuranceURL: cfg.InsuranceURL,
		maxSlots:     cfg.MaxSlots,
	}
}

// toolFunc produces the spoken sentence and a metrics status label.
type toolFunc func(ctx context.Context, inv *ToolInvocation) (sentence, status string)

// handleTool decodes the envelope, answers webhook retries from the dedupe
// store, and always replies 200.
func (h *ToolHandler) handleTool(name string, requireID bool, fn toolFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		started := time.Now()

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			h.logger.Error("failed to read tool body", "tool", name, "error", err)
			h.metrics.ObserveToolCall(name, "read_error")
			writeToolResult(w, h.logger, "", "I'm sorry, something went wrong on our end. Could you try that again?")
			return
		}

		inv, err := parseToolInvocation(body)
		if err != nil {
			h.logger.Error("failed to parse tool call", "tool", name, "error", err)
			h.metrics.ObserveToolCall(name, "parse_error")
			writeToolResult(w, h.logger, "", "I'm sorry, something went wrong on our end. Could you try that again?")
			return
		}

		if requireID && inv.ID == "" {
			h.metrics.ObserveToolCall(name, "missing_id")
			w.WriteHeader(http.StatusOK)
			return
		}

		if inv.ID != "" && h.dedupe != nil {
			first, err := h.dedupe.MarkProcessed(ctx, "voice", inv.ID)
			if err != nil {
				// Fail open: a dead dedupe store must not take down the
				// booking line.
				h.logger.Warn("dedupe check failed", "tool", name, "error", err)
			} else if !first {
				h.logger.Info("duplicate tool call dropped", "tool", name, "tool_call_id", inv.ID)
				h.metrics.ObserveDedupeHit()
				writeToolResult(w, h.logger, inv.ID, "I'm already taking care of that for you.")
				return
			}
		}

		sentence, status := fn(ctx, inv)
		h.metrics.ObserveToolCall(name, status)
		h.metrics.ObserveToolLatency(name, time.Since(started).Seconds())
		h.logger.Info("tool call handled", "tool", name, "status", status, "tool_call_id", inv.ID)
		writeToolResult(w, h.logger, inv.ID, sentence)
	}
}

// CheckAvailability handles POST /check_availability.
func (h *ToolHandler) CheckAvailability() http.HandlerFunc {
	return h.handleTool("check_availability", false, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		slots, err := h.booking.OpenSlots(ctx, h.maxSlots)
		if err != nil {
			h.logger.Error("availability lookup failed", "error", err)
			return "I'm having trouble checking the calendar right now. Could you try again in a moment?", "error"
		}
		if len(slots) == 0 {
			return "I'm sorry, I don't see anything open over the next few days. Would you like me to have the team call you back?", "no_slots"
		}

		loc := h.booking.Location()
		if requested, err := parseDateTime(inv.Arg("date"), loc); err == nil {
			onDay := slotsOnDay(slots, requested, loc)
			if len(onDay) > 0 {
				return "On that day I have " + schedule.FormatSlots(onDay, loc) + ". Which works best for you?", "ok"
			}
			return "I don't have anything open that day, but I do have " + schedule.FormatSlots(slots, loc) + ". Would any of those work?", "day_full"
		}

		return "I have availability on " + schedule.FormatSlots(slots, loc) + ". Which works best for you?", "ok"
	})
}

func slotsOnDay(slots []schedule.Slot, day time.Time, loc *time.Location) []schedule.Slot {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()
	var onDay []schedule.Slot
	for _, s := range slots {
		sy, sm, sd := s.Start.In(loc).Date()
		if sy == y && sm == m && sd == d {
			onDay = append(onDay, s)
		}
	}
	return onDay
}

// Book handles POST /book.
func (h *ToolHandler) Book() http.HandlerFunc {
	return h.handleTool("book", true, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		loc := h.booking.Location()
		start, err := parseDateTime(inv.Arg("dateTime"), loc)
		if err != nil {
			return "I need a date and time to book the appointment. What time works for you?", "invalid_input"
		}

		appt, err := h.booking.Book(ctx, appointments.BookingRequest{
			ClientName:  inv.Arg("name"),
			ClientPhone: inv.Phone(),
			ClientEmail: inv.Arg("email"),
			ServiceType: inv.Arg("service"),
			Start:       start,
		})
		switch {
		case errors.Is(err, appointments.ErrSlotTaken):
			return "I apologize, but that time slot was just taken. Please ask for a different time.", "slot_taken"
		case errors.Is(err, appointments.ErrInvalidInput):
			return "I need a valid future date and time to book the appointment.", "invalid_input"
		case err != nil:
			h.logger.Error("booking failed", "error", err)
			return "There was a technical error booking the appointment.", "error"
		}

		return "You're all set. I've booked your " + appt.ServiceType + " for " +
			schedule.FormatTime(appt.Start, loc) + ".", "ok"
	})
}

// Cancel handles POST /cancel.
func (h *ToolHandler) Cancel() http.HandlerFunc {
	return h.handleTool("cancel", false, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		phone := inv.Phone()
		if phone == "" {
			return "I need a phone number to find the appointment to cancel.", "invalid_input"
		}

		appt, err := h.booking.Cancel(ctx, phone)
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			return "I couldn't find an upcoming appointment for that phone number.", "not_found"
		case errors.Is(err, appointments.ErrInvalidInput):
			return "I need a phone number to find the appointment to cancel.", "invalid_input"
		case err != nil:
			h.logger.Error("cancellation failed", "error", err)
			return "There was an error cancelling the appointment. Please try again.", "error"
		}

		return "Done. I've cancelled " + appt.ClientName + "'s " + appt.ServiceType + " on " +
			schedule.FormatTime(appt.Start, h.booking.Location()) + ".", "ok"
	})
}

// Reschedule handles POST /reschedule.
func (h *ToolHandler) Reschedule() http.HandlerFunc {
	return h.handleTool("reschedule", false, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		phone := inv.Phone()
		if phone == "" {
			return "I need a phone number to find the appointment to move.", "invalid_input"
		}

		loc := h.booking.Location()
		raw := inv.Arg("dateTime")
		if raw == "" {
			// Some assistant configurations split the new time across two
			// arguments.
			raw = inv.Arg("date") + " " + inv.Arg("time")
		}
		newStart, err := parseDateTime(raw, loc)
		if err != nil {
			return "What date and time would you like to move the appointment to?", "invalid_input"
		}

		appt, err := h.booking.Reschedule(ctx, phone, newStart)
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			return "I couldn't find an upcoming appointment to reschedule.", "not_found"
		case errors.Is(err, appointments.ErrSlotTaken):
			return "I'm sorry, that new time is already taken. Could you pick another?", "slot_taken"
		case errors.Is(err, appointments.ErrInvalidInput):
			return "I need a valid future date and time to move the appointment.", "invalid_input"
		case err != nil:
			h.logger.Error("reschedule failed", "error", err)
			return "There was a technical error moving the appointment.", "error"
		}

		return "Success. I have moved your " + appt.ServiceType + " appointment to " +
			schedule.FormatTime(appt.Start, loc) + ".", "ok"
	})
}

// LookupClient handles POST /lookup_client. The result strings are cues
// the assistant is prompted to act on, not sentences for the caller.
func (h *ToolHandler) LookupClient() http.HandlerFunc {
	return h.handleTool("lookup_client", false, func(ctx context.Context, inv *ToolInvocation) (string, string) {
		appt, err := h.booking.Lookup(ctx, inv.Phone())
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			return "new_client", "new_client"
		case errors.Is(err, appointments.ErrInvalidInput):
			return "new_client", "invalid_input"
		case err != nil:
			h.logger.Error("client lookup failed", "error", err)
			return "error_looking_up_client", "error"
		}
		return "found_client: " + appt.ClientName + " (Last service: " + appt.ServiceType + ")", "ok"
	})
}
