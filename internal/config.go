package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Application base URL (for verification links in email)
	BaseURL string

	// Email Provider Configuration
	EmailProvider string // "log" or "resend"
	ResendAPIKey  string
	EmailFrom     string

	// Auth platform (account ownership and sessions live there)
	AuthURL    string
	AuthAPIKey string

	// Mapping provider (address autocomplete, optional)
	GoogleMapsAPIKey string

	// Outbox Dispatch Configuration
	DispatchSchedule string // cron spec for the batch pass

	// Failed-job retry (off by default; failed jobs stay failed)
	RetryEnabled     bool
	RetryMaxAttempts int
	RetryCooldown    time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// Email defaults to the log provider for development
		EmailProvider: getEnv("EMAIL_PROVIDER", "log"),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "T&A Booking <no-reply@tandaclean.example>"),

		AuthURL:    getEnv("AUTH_URL", ""),
		AuthAPIKey: getEnv("AUTH_API_KEY", ""),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		// Batch dispatch runs every minute unless overridden
		DispatchSchedule: getEnv("DISPATCH_SCHEDULE", "@every 1m"),

		RetryEnabled:     getEnvBool("RETRY_ENABLED", false),
		RetryMaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryCooldown:    getEnvDuration("RETRY_COOLDOWN", 10*time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate email provider configuration
	if cfg.EmailProvider == "resend" {
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER is 'resend'")
		}
		if cfg.EmailFrom == "" {
			return nil, fmt.Errorf("EMAIL_FROM is required when EMAIL_PROVIDER is 'resend'")
		}
	} else if cfg.EmailProvider != "log" {
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'resend' or 'log', got: %s", cfg.EmailProvider)
	}

	// The auth platform is required for account bookings and the admin
	// surface; guest bookings work without it.
	if cfg.AuthURL != "" && cfg.AuthAPIKey == "" {
		return nil, fmt.Errorf("AUTH_API_KEY is required when AUTH_URL is set")
	}

	if cfg.RetryEnabled && cfg.RetryMaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1 when RETRY_ENABLED is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
