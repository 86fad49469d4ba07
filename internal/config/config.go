package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Clinic operating windows fed into the admission rule engine.
	ClinicTimezone       string
	WorkStartHour        int
	WorkEndHour          int
	LunchStartHour       int
	LunchEndHour         int
	CheckInEarlyMinutes  int
	CheckInLateMinutes   int
	CompletionMinutes    int
	NoShowGraceMinutes   int
	RescheduleLeadHours  int
	ChangeCooldownMinute int

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Reminder emails are suppressed during quiet hours.
	QuietHoursStart string
	QuietHoursEnd   string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		ClinicTimezone:       getEnv("CLINIC_TIMEZONE", admission.DefaultTimezone),
		WorkStartHour:        getEnvAsInt("CLINIC_WORK_START_HOUR", 8),
		WorkEndHour:          getEnvAsInt("CLINIC_WORK_END_HOUR", 20),
		LunchStartHour:       getEnvAsInt("CLINIC_LUNCH_START_HOUR", 13),
		LunchEndHour:         getEnvAsInt("CLINIC_LUNCH_END_HOUR", 14),
		CheckInEarlyMinutes:  getEnvAsInt("CHECKIN_EARLY_MINUTES", 30),
		CheckInLateMinutes:   getEnvAsInt("CHECKIN_LATE_MINUTES", 15),
		CompletionMinutes:    getEnvAsInt("COMPLETION_WINDOW_MINUTES", 120),
		NoShowGraceMinutes:   getEnvAsInt("NO_SHOW_GRACE_MINUTES", 15),
		RescheduleLeadHours:  getEnvAsInt("RESCHEDULE_LEAD_HOURS", 2),
		ChangeCooldownMinute: getEnvAsInt("CHANGE_COOLDOWN_MINUTES", 2),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Clínica de Hernia y Vesícula"),

		QuietHoursStart: getEnv("QUIET_HOURS_START", "21:00"),
		QuietHoursEnd:   getEnv("QUIET_HOURS_END", "08:00"),
	}
}

// AdmissionConfig maps the env-driven windows onto the rule engine's
// immutable configuration.
func (c *Config) AdmissionConfig() admission.Config {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		loc = nil // normalized() falls back to the default clinic timezone
	}
	return admission.Config{
		Location:            loc,
		WorkStartHour:       c.WorkStartHour,
		WorkEndHour:         c.WorkEndHour,
		LunchStartHour:      c.LunchStartHour,
		LunchEndHour:        c.LunchEndHour,
		CheckInEarly:        time.Duration(c.CheckInEarlyMinutes) * time.Minute,
		CheckInLate:         time.Duration(c.CheckInLateMinutes) * time.Minute,
		CompletionWindow:    time.Duration(c.CompletionMinutes) * time.Minute,
		NoShowGrace:         time.Duration(c.NoShowGraceMinutes) * time.Minute,
		RescheduleLead:      time.Duration(c.RescheduleLeadHours) * time.Hour,
		RapidChangeCooldown: time.Duration(c.ChangeCooldownMinute) * time.Minute,
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

func getEnvAsSlice(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
