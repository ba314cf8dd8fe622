package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"invoicing-backend/logger"
)

type Config struct {
	Port string

	// Database
	DBDriver string
	DBURL    string

	// Auth
	JWTSecret      string
	JWTExpiryHours int

	// Default admin, created on startup when missing
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// Request filters
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	LoginMaxAttempts   int
	LoginBlockMinutes  int
	CounterStore       string // memory or database

	// Status reconciliation
	SweepSchedule             string
	StatusSplitPartialOverdue bool

	// Notifications
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	SentryDSN string

	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Port:                      getEnv("PORT", "8080"),
		DBDriver:                  getEnv("DB_DRIVER", "postgres"),
		DBURL:                     getEnv("DB_URL", ""),
		JWTSecret:                 getEnv("JWT_SECRET", ""),
		JWTExpiryHours:            getEnvInt("JWT_EXPIRY_HOURS", 24),
		AdminUsername:             getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:                getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:             getEnv("ADMIN_PASSWORD", ""),
		CORSAllowedOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4200")),
		RateLimitPerMinute:        getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		LoginMaxAttempts:          getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginBlockMinutes:         getEnvInt("LOGIN_BLOCK_MINUTES", 15),
		CounterStore:              getEnv("COUNTER_STORE", "memory"),
		SweepSchedule:             getEnv("SWEEP_SCHEDULE", "0 1 * * *"),
		StatusSplitPartialOverdue: getEnvBool("STATUS_SPLIT_PARTIAL_OVERDUE", true),
		TwilioAccountSID:          getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:           getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:         getEnv("TWILIO_PHONE_NUMBER", ""),
		SendGridAPIKey:            getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:         getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:          getEnv("SENDGRID_FROM_NAME", "Invoicing"),
		SentryDSN:                 getEnv("SENTRY_DSN", ""),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFormat:                 getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:             getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                 getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.LoginBlockMinutes <= 0 {
		return fmt.Errorf("LOGIN_BLOCK_MINUTES must be positive")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	if c.CounterStore != "memory" && c.CounterStore != "database" {
		return fmt.Errorf("COUNTER_STORE must be memory or database, got %q", c.CounterStore)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func (c *Config) SendGridEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
