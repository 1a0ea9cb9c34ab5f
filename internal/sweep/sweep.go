package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/internal/messaging"
	"github.com/lumen-aesthetics/receptionist/internal/observability/metrics"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// Store is the claim surface the sweep runs against. Every claim method
// flips the eligibility flag as part of the same statement that selects
// the rows, so two concurrent passes can never both claim a row.
type Store interface {
	ClaimDueReminders(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error)
	ClaimDueReviews(ctx context.Context, endedBefore time.Time) ([]appointments.Appointment, error)
	CompletePast(ctx context.Context, endedBefore time.Time) (int64, error)
}

// SMSSender dispatches a single outbound text.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service periodically sends reminders and review requests, and retires
// appointments whose window has passed.
type Service struct {
	store        Store
	sms          SMSSender
	businessName string
	reviewLink   string
	parkingNote  string
	location     *time.Location

	reminderLead    time.Duration
	reminderWindow  time.Duration
	reviewDelay     time.Duration
	completionGrace time.Duration

	logger  *logging.Logger
	metrics *metrics.SweepMetrics
	now     func() time.Time

	tick <-chan time.Time
	stop func()
}

// ServiceConfig configures the sweep.
type ServiceConfig struct {
	Store        Store
	SMS          SMSSender
	BusinessName string
	ReviewLink   string
	ParkingNote  string
	Location     *time.Location

	ReminderLead    time.Duration
	ReminderWindow  time.Duration
	ReviewDelay     time.Duration
	CompletionGrace time.Duration

	Interval time.Duration
	Logger   *logging.Logger
	Metrics  *metrics.SweepMetrics
	Now      func() time.Time

	// Tick/Stop override the interval ticker in tests.
	Tick <-chan time.Time
	Stop func()
}

// NewService validates the config and applies defaults.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("sweep: store required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = 24 * time.Hour
	}
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = 20 * time.Minute
	}
	if cfg.ReviewDelay <= 0 {
		cfg.ReviewDelay = 2 * time.Hour
	}
	if cfg.CompletionGrace <= 0 {
		cfg.CompletionGrace = time.Hour
	}

	tick := cfg.Tick
	stop := cfg.Stop
	if tick == nil {
		interval := cfg.Interval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		ticker := time.NewTicker(interval)
		tick = ticker.C
		stop = ticker.Stop
	}

	return &Service{
		store:           cfg.Store,
		sms:             cfg.SMS,
		businessName:    cfg.BusinessName,
		reviewLink:      cfg.ReviewLink,
		parkingNote:     cfg.ParkingNote,
		location:        cfg.Location,
		reminderLead:    cfg.ReminderLead,
		reminderWindow:  cfg.ReminderWindow,
		reviewDelay:     cfg.ReviewDelay,
		completionGrace: cfg.CompletionGrace,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		now:             cfg.Now,
		tick:            tick,
		stop:            stop,
	}, nil
}

// Start runs one pass immediately, then one per tick until ctx is done.
func (s *Service) Start(ctx context.Context) {
	if s == nil {
		return
	}
	defer func() {
		if s.stop != nil {
			s.stop()
		}
	}()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.tick:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single sweep pass. Completion runs first so an
// appointment past its review delay is marked completed and picked up by the
// review pass without waiting another interval.
func (s *Service) RunOnce(ctx context.Context) {
	now := s.now()

	if n, err := s.store.CompletePast(ctx, now.Add(-s.completionGrace)); err != nil {
		s.logger.Error("sweep: complete pass failed", "error", err)
	} else if n > 0 {
		s.logger.Info("sweep: completed past appointments", "count", n)
	}

	s.sendReminders(ctx, now)
	s.sendReviews(ctx, now)
	s.metrics.ObservePass()
}

func (s *Service) sendReminders(ctx context.Context, now time.Time) {
	from := now.Add(s.reminderLead)
	to := from.Add(s.reminderWindow)
	claimed, err := s.store.ClaimDueReminders(ctx, from, to)
	if err != nil {
		s.logger.Error("sweep: reminder claim failed", "error", err)
		return
	}
	for _, appt := range claimed {
		body := messaging.ReminderMessage(appt.ClientName, appt.ServiceType, appt.Start, s.location, s.parkingNote)
		s.deliver(ctx, "reminder", appt, body)
	}
}

func (s *Service) sendReviews(ctx context.Context, now time.Time) {
	claimed, err := s.store.ClaimDueReviews(ctx, now.Add(-s.reviewDelay))
	if err != nil {
		s.logger.Error("sweep: review claim failed", "error", err)
		return
	}
	for _, appt := range claimed {
		body := messaging.ReviewMessage(appt.ClientName, s.businessName, s.reviewLink)
		s.deliver(ctx, "review", appt, body)
	}
}

// deliver sends to an already-claimed row. A send failure is logged and
// counted but the claim stays: the flag is the record that we tried, and
// un-flipping it would reopen the double-send window.
func (s *Service) deliver(ctx context.Context, kind string, appt appointments.Appointment, body string) {
	if s.sms == nil || appt.ClientPhone == "" {
		s.logger.Warn("sweep: no sms route for claimed row",
			"kind", kind, "appointment_id", appt.ID)
		s.metrics.ObserveSendFailed(kind)
		return
	}
	if err := s.sms.SendSMS(ctx, appt.ClientPhone, body); err != nil {
		s.logger.Error("sweep: send failed", "kind", kind, "error", err,
			"appointment_id", appt.ID)
		s.metrics.ObserveSendFailed(kind)
		return
	}
	s.logger.Info("sweep: sent", "kind", kind, "appointment_id", appt.ID)
	s.metrics.ObserveSent(kind)
}
