package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Business calendar
	BusinessName     string
	BusinessTimezone string
	OpenHour         int
	CloseHour        int
	SlotMinutes      int
	LookaheadDays    int
	MaxOfferedSlots  int

	// Google Calendar
	GoogleCalendarID      string
	GoogleCredentialsJSON string

	// Twilio SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TeamPhone        string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	TeamEmail         string

	// Outbound message content
	ReviewLink        string
	InsuranceUploadURL string
	ParkingNote       string

	// Notification sweep
	SweepInterval   time.Duration
	ReminderLead    time.Duration
	ReminderWindow  time.Duration
	ReviewDelay     time.Duration
	CompletionGrace time.Duration

	// Webhook hardening
	ToolCallDedupeTTL time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
	AdminJWTSecret    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		BusinessName:     getEnv("BUSINESS_NAME", "Lumen Aesthetics"),
		BusinessTimezone: getEnv("BUSINESS_TIMEZONE", "America/Toronto"),
		OpenHour:         getEnvAsInt("OPEN_HOUR", 9),
		CloseHour:        getEnvAsInt("CLOSE_HOUR", 17),
		SlotMinutes:      getEnvAsInt("SLOT_MINUTES", 60),
		LookaheadDays:    getEnvAsInt("LOOKAHEAD_DAYS", 7),
		MaxOfferedSlots:  getEnvAsInt("MAX_OFFERED_SLOTS", 3),

		GoogleCalendarID:      getEnv("GC_CALENDAR_ID", ""),
		GoogleCredentialsJSON: getEnv("GC_CREDENTIALS_JSON", ""),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		TeamPhone:        getEnv("TEAM_PHONE", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Lumen Aesthetics"),
		TeamEmail:         getEnv("TEAM_EMAIL", ""),

		ReviewLink:         getEnv("REVIEW_LINK", ""),
		InsuranceUploadURL: getEnv("INSURANCE_UPLOAD_URL", ""),
		ParkingNote:        getEnv("PARKING_NOTE", "Free parking validation in the Green Garage (Level P2)."),

		SweepInterval:   getEnvAsDuration("SWEEP_INTERVAL", 10*time.Minute),
		ReminderLead:    getEnvAsDuration("REMINDER_LEAD", 24*time.Hour),
		ReminderWindow:  getEnvAsDuration("REMINDER_WINDOW", 20*time.Minute),
		ReviewDelay:     getEnvAsDuration("REVIEW_DELAY", 2*time.Hour),
		CompletionGrace: getEnvAsDuration("COMPLETION_GRACE", 1*time.Hour),

		ToolCallDedupeTTL: getEnvAsDuration("TOOL_CALL_DEDUPE_TTL", 10*time.Minute),
		RateLimitRPS:      getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 20),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
