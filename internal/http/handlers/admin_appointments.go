package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/internal/messaging"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// appointmentLister is the read surface for the staff API.
type appointmentLister interface {
	List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error)
}

// AdminAppointmentsHandler lets staff browse the book behind JWT auth.
type AdminAppointmentsHandler struct {
	store  appointmentLister
	logger *logging.Logger
}

// NewAdminAppointmentsHandler creates the staff listing handler.
func NewAdminAppointmentsHandler(store appointmentLister, logger *logging.Logger) *AdminAppointmentsHandler {
	if store == nil {
		panic("handlers: appointment lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{store: store, logger: logger}
}

type adminAppointment struct {
	ID            uuid.UUID `json:"id"`
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone"`
	ClientEmail   string    `json:"client_email,omitempty"`
	ServiceType   string    `json:"service_type"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	ReminderSent  bool      `json:"reminder_sent"`
	ReviewSent    bool      `json:"review_sent"`
	GoogleEventID string    `json:"google_event_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// List is the HTTP handler for GET /admin/appointments. Supports ?phone=,
// ?from=, ?to= (RFC 3339) and ?limit=.
func (h *AdminAppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := appointments.ListFilter{
		PhoneDigits: messaging.SignificantDigits(q.Get("phone")),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	appts, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("admin appointment listing failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]adminAppointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, adminAppointment{
			ID:            a.ID,
			ClientName:    a.ClientName,
			ClientPhone:   a.ClientPhone,
			ClientEmail:   a.ClientEmail,
			ServiceType:   a.ServiceType,
			StartTime:     a.Start,
			EndTime:       a.End,
			Status:        string(a.Status),
			ReminderSent:  a.ReminderSent,
			ReviewSent:    a.ReviewSent,
			GoogleEventID: a.GoogleEventID,
			CreatedAt:     a.CreatedAt,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"appointments": out})
}
