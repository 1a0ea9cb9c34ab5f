package notify

import (
	"context"
	"errors"

	"github.com/lumen-aesthetics/receptionist/internal/messaging"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// SMSSender sends SMS messages to the staff line.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service fans a team alert out to whichever channels are configured.
type Service struct {
	sms       SMSSender
	email     EmailSender
	teamPhone string
	teamEmail string
	logger    *logging.Logger
}

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	SMS       SMSSender
	Email     EmailSender
	TeamPhone string
	TeamEmail string
	Logger    *logging.Logger
}

// NewService creates a notification service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		sms:       cfg.SMS,
		email:     cfg.Email,
		teamPhone: cfg.TeamPhone,
		teamEmail: cfg.TeamEmail,
		logger:    cfg.Logger,
	}
}

// AlertTeam asks a human to call the client back. Succeeds when at least
// one channel delivered.
func (s *Service) AlertTeam(ctx context.Context, clientName, clientPhone, reason string) error {
	body := messaging.TeamAlertMessage(clientName, clientPhone, reason)

	var delivered bool
	if s.sms != nil && s.teamPhone != "" {
		if err := s.sms.SendSMS(ctx, s.teamPhone, body); err != nil {
			s.logger.Error("team alert sms failed", "error", err)
		} else {
			delivered = true
		}
	}
	if s.email != nil && s.teamEmail != "" {
		msg := EmailMessage{
			To:      s.teamEmail,
			ToName:  "Front Desk",
			Subject: "Callback requested: " + reason,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("team alert email failed", "error", err)
		} else {
			delivered = true
		}
	}
	if !delivered {
		return errors.New("notify: no channel delivered the team alert")
	}
	return nil
}
