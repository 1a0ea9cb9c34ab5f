package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lumen-aesthetics/receptionist/internal/api/router"
	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/internal/calendar"
	appconfig "github.com/lumen-aesthetics/receptionist/internal/config"
	"github.com/lumen-aesthetics/receptionist/internal/events"
	"github.com/lumen-aesthetics/receptionist/internal/http/handlers"
	"github.com/lumen-aesthetics/receptionist/internal/messaging"
	"github.com/lumen-aesthetics/receptionist/internal/notify"
	"github.com/lumen-aesthetics/receptionist/internal/observability/metrics"
	"github.com/lumen-aesthetics/receptionist/internal/schedule"
	"github.com/lumen-aesthetics/receptionist/internal/sweep"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	repo := appointments.NewRepository(pool)

	hours, err := schedule.NewHours(cfg.OpenHour, cfg.CloseHour, cfg.SlotMinutes, cfg.LookaheadDays, cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business hours", "error", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(nil)
	bookingMetrics := metrics.NewBookingMetrics(nil)
	sweepMetrics := metrics.NewSweepMetrics(nil)

	// Optional collaborators degrade to nil and every caller tolerates
	// their absence.
	var calendarClient appointments.Calendar
	if cfg.GoogleCalendarID != "" && cfg.GoogleCredentialsJSON != "" {
		gc, err := calendar.NewClient(ctx, cfg.GoogleCalendarID, []byte(cfg.GoogleCredentialsJSON), logger)
		if err != nil {
			logger.Warn("google calendar disabled", "error", err)
		} else {
			calendarClient = gc
		}
	}

	var smsSender appointments.SMSSender
	if tw := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger); tw != nil {
		smsSender = tw
	} else {
		logger.Warn("twilio credentials missing, outbound sms disabled")
	}

	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}

	var dedupe *events.ProcessedStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, tool-call dedupe disabled", "error", err)
		} else {
			dedupe = events.NewProcessedStore(rdb, cfg.ToolCallDedupeTTL)
		}
	}

	booking := appointments.NewService(appointments.ServiceConfig{
		Store:        repo,
		Calendar:     calendarClient,
		SMS:          smsSender,
		Hours:        hours,
		BusinessName: cfg.BusinessName,
		Logger:       logger,
		Metrics:      bookingMetrics,
	})

	notifier := notify.NewService(notify.ServiceConfig{
		SMS:       smsSender,
		Email:     emailSender,
		TeamPhone: cfg.TeamPhone,
		TeamEmail: cfg.TeamEmail,
		Logger:    logger,
	})

	sweeper, err := sweep.NewService(sweep.ServiceConfig{
		Store:           repo,
		SMS:             smsSender,
		BusinessName:    cfg.BusinessName,
		ReviewLink:      cfg.ReviewLink,
		ParkingNote:     cfg.ParkingNote,
		Location:        hours.Location,
		ReminderLead:    cfg.ReminderLead,
		ReminderWindow:  cfg.ReminderWindow,
		ReviewDelay:     cfg.ReviewDelay,
		CompletionGrace: cfg.CompletionGrace,
		Interval:        cfg.SweepInterval,
		Logger:          logger,
		Metrics:         sweepMetrics,
	})
	if err != nil {
		logger.Error("failed to create notification sweep", "error", err)
		os.Exit(1)
	}
	go sweeper.Start(ctx)

	toolCfg := handlers.ToolHandlerConfig{
		Booking:      booking,
		Notifier:     notifier,
		Metrics:      webhookMetrics,
		Logger:       logger,
		BusinessName: cfg.BusinessName,
		InsuranceURL: cfg.InsuranceUploadURL,
		MaxSlots:     cfg.MaxOfferedSlots,
	}
	if smsSender != nil {
		toolCfg.SMS = smsSender
	}
	if dedupe != nil {
		toolCfg.Dedupe = dedupe
	}

	r := router.New(&router.Config{
		Logger: logger,
		Tools:  handlers.NewToolHandler(toolCfg),
		SMSInbound: handlers.NewSMSInboundHandler(handlers.SMSInboundHandlerConfig{
			Verifier:  booking,
			Logger:    logger,
			DeskPhone: cfg.TeamPhone,
		}),
		Health:          handlers.NewHealthHandler(repo, cfg.Env, logger),
		Admin:           handlers.NewAdminAppointmentsHandler(repo, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
