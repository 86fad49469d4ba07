package bootstrap

import (
	"context"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/clinic"
	appconfig "github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/config"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// BuildEngine assembles the admission rule engine from the env-driven
// defaults, overlaid with any operational windows staff persisted through
// the clinic settings store.
func BuildEngine(ctx context.Context, cfg *appconfig.Config, store *clinic.Store, logger *logging.Logger) *admission.Engine {
	if logger == nil {
		logger = logging.Default()
	}

	ruleCfg := admission.DefaultConfig()
	if cfg != nil {
		ruleCfg = cfg.AdmissionConfig()
	}

	if store != nil {
		settings, err := store.Get(ctx)
		if err != nil {
			logger.Warn("clinic settings unavailable, using defaults", "error", err)
		} else {
			ruleCfg = settings.Apply(ruleCfg)
		}
	}

	return admission.New(ruleCfg)
}
