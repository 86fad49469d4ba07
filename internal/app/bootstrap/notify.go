package bootstrap

import (
	"strconv"
	"strings"
	"time"

	appconfig "github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/config"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/notify"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/patients"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// BuildNotifier creates the patient notification service. Without a
// SendGrid key the stub sender logs what would have been sent.
func BuildNotifier(cfg *appconfig.Config, patientRepo patients.Repository, logger *logging.Logger) *notify.Service {
	if logger == nil {
		logger = logging.Default()
	}

	var sender notify.EmailSender
	if cfg != nil && cfg.SendGridAPIKey != "" {
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sg != nil {
			sender = sg
		}
	}
	if sender == nil {
		sender = notify.NewStubEmailSender(logger)
	}

	return notify.NewService(sender, patientRepo, buildQuietHours(cfg, logger), logger)
}

// buildQuietHours parses HH:MM window bounds from configuration. A window
// that cannot be parsed disables suppression rather than guessing.
func buildQuietHours(cfg *appconfig.Config, logger *logging.Logger) notify.QuietHours {
	if cfg == nil {
		return notify.QuietHours{}
	}

	start, okStart := parseHour(cfg.QuietHoursStart)
	end, okEnd := parseHour(cfg.QuietHoursEnd)
	if !okStart || !okEnd {
		logger.Warn("invalid quiet hours, suppression disabled",
			"start", cfg.QuietHoursStart, "end", cfg.QuietHoursEnd)
		return notify.QuietHours{}
	}

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		loc = time.UTC
	}
	return notify.QuietHours{StartHour: start, EndHour: end, Location: loc}
}

func parseHour(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if idx := strings.Index(raw, ":"); idx >= 0 {
		raw = raw[:idx]
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
