package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumen-aesthetics/receptionist/internal/http/handlers"
	httpmiddleware "github.com/lumen-aesthetics/receptionist/internal/http/middleware"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger     *logging.Logger
	Tools      *handlers.ToolHandler
	SMSInbound *handlers.SMSInboundHandler
	Health     *handlers.HealthHandler
	Admin      *handlers.AdminAppointmentsHandler

	AdminAuthSecret string
	MetricsHandler  http.Handler

	// RateLimitRPS/Burst throttle the public webhook surface per IP.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public webhook surface: the voice platform's tool calls plus the
	// Twilio inbound-SMS callback.
	r.Group(func(public chi.Router) {
		if cfg.RateLimitRPS > 0 {
			limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimiterConfig{
				RPS:   cfg.RateLimitRPS,
				Burst: cfg.RateLimitBurst,
			})
			public.Use(limiter.Middleware)
		}
		public.Post("/check_availability", cfg.Tools.CheckAvailability())
		public.Post("/book", cfg.Tools.Book())
		public.Post("/cancel", cfg.Tools.Cancel())
		public.Post("/reschedule", cfg.Tools.Reschedule())
		public.Post("/lookup_client", cfg.Tools.LookupClient())
		public.Post("/notify_team", cfg.Tools.NotifyTeam())
		public.Post("/send_insurance", cfg.Tools.SendInsurance())
		public.Post("/transfer", cfg.Tools.Transfer())
		public.Post("/intent", cfg.Tools.Intent())

		if cfg.SMSInbound != nil {
			public.Post("/sms-webhook", cfg.SMSInbound.Handle)
		}
	})

	// Probes and metrics, unthrottled.
	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Health)
		r.Get("/db-test", cfg.Health.DBTest)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Staff API behind JWT.
	if cfg.Admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/appointments", cfg.Admin.List)
		})
	}

	return r
}
