package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admin"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/appointments"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/clinic"
	httpmiddleware "github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/http/middleware"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/leads"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/patients"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/surveys"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	AppointmentsHandler *appointments.Handler
	PatientsHandler     *patients.Handler
	LeadsHandler        *leads.Handler
	SurveysHandler      *surveys.Handler
	ClinicHandler       *clinic.Handler
	AdminReport         *admin.ReportHandler

	// StaffJWTSecret protects everything except the public intake
	// endpoints. Leaving it empty disables the staff surface entirely.
	StaffJWTSecret string

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Public intake rate limit, requests per second per client IP.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health and metrics stay unthrottled.
	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Patient-facing intake forms on the clinic website, rate limited per
	// client IP. The limiter must be installed before any route on the
	// group, so the intake endpoints get their own group.
	r.Group(func(intake chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			intake.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		if cfg.LeadsHandler != nil {
			intake.Post("/public/leads", cfg.LeadsHandler.CreateWebLead)
		}
		if cfg.SurveysHandler != nil {
			intake.Post("/public/surveys", cfg.SurveysHandler.Submit)
		}
	})

	// Staff routes (protected by JWT)
	if cfg.StaffJWTSecret != "" {
		r.Route("/api", func(staff chi.Router) {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffJWTSecret))
			if cfg.AppointmentsHandler != nil {
				staff.Mount("/appointments", cfg.AppointmentsHandler.Routes())
			}
			if cfg.PatientsHandler != nil {
				staff.Mount("/patients", cfg.PatientsHandler.Routes())
			}
			if cfg.LeadsHandler != nil {
				staff.Mount("/leads", cfg.LeadsHandler.Routes())
			}
			if cfg.SurveysHandler != nil {
				staff.Mount("/surveys", cfg.SurveysHandler.Routes())
			}
			if cfg.ClinicHandler != nil {
				staff.Mount("/clinic", cfg.ClinicHandler.Routes())
			}
			if cfg.AdminReport != nil {
				staff.Mount("/admin", cfg.AdminReport.Routes())
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
