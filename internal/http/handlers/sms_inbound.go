package handlers

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"

	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// appointmentVerifier promotes the caller's next confirmed appointment
// after a keyword reply.
type appointmentVerifier interface {
	VerifyByPhone(ctx context.Context, phone string) (*appointments.Appointment, error)
}

// SMSInboundHandler answers Twilio's inbound-message webhook with TwiML.
type SMSInboundHandler struct {
	verifier  appointmentVerifier
	logger    *logging.Logger
	deskPhone string
}

// SMSInboundHandlerConfig configures the inbound SMS handler.
type SMSInboundHandlerConfig struct {
	Verifier appointmentVerifier
	Logger   *logging.Logger
	// DeskPhone is spoken back in the cancellation reply.
	DeskPhone string
}

// NewSMSInboundHandler creates the inbound SMS handler.
func NewSMSInboundHandler(cfg SMSInboundHandlerConfig) *SMSInboundHandler {
	if cfg.Verifier == nil {
		panic("handlers: verifier required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &SMSInboundHandler{
		verifier:  cfg.Verifier,
		logger:    cfg.Logger,
		deskPhone: cfg.DeskPhone,
	}
}

// twimlResponse is the minimal messaging TwiML document.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

var confirmKeywords = map[string]bool{
	"C": true, "YES": true, "CONFIRM": true, "OK": true,
}

// Handle is the HTTP handler for POST /sms-webhook.
func (h *SMSInboundHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	from := r.FormValue("From")
	body := strings.ToUpper(strings.TrimSpace(r.FormValue("Body")))

	h.logger.Info("inbound sms", "from", from, "keyword", body)

	var reply string
	switch {
	case confirmKeywords[body]:
		appt, err := h.verifier.VerifyByPhone(ctx, from)
		switch {
		case err == nil:
			reply = "Thanks " + appt.ClientName + ", your appointment is now fully verified! We look forward to seeing you."
		case errors.Is(err, appointments.ErrNotFound), errors.Is(err, appointments.ErrInvalidInput):
			reply = "We couldn't find a pending appointment to confirm. It might already be verified, or please call us."
		default:
			h.logger.Error("sms verification failed", "error", err)
			reply = "We couldn't process that right now. Please call us and we'll sort it out."
		}
	case strings.Contains(body, "CANCEL"):
		reply = "To cancel, please give us a call at " + h.deskPhone + " so we can reschedule you."
	default:
		reply = "Thanks for your message. A team member will review it shortly. Reply C to confirm your appointment."
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if err := xml.NewEncoder(w).Encode(twimlResponse{Message: reply}); err != nil {
		h.logger.Error("failed to write twiml", "error", err)
	}
}
