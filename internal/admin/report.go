// Package admin serves the back-office reporting endpoints. It reads
// through database/sql so reporting can point at a read replica without
// touching the pgx pool the live dashboard uses.
package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// ReportHandler handles the practice overview report endpoint.
type ReportHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewReportHandler creates a new admin report handler.
func NewReportHandler(db *sql.DB, logger *logging.Logger) *ReportHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportHandler{
		db:     db,
		logger: logger,
	}
}

// Routes mounts the admin endpoints.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/report", h.GetOverview)
	return r
}

// OverviewResponse contains the back-office practice report.
type OverviewResponse struct {
	Period         string             `json:"period"`
	Patients       PatientMetrics     `json:"patients"`
	Appointments   AppointmentMetrics `json:"appointments"`
	Leads          LeadMetrics        `json:"leads"`
	Surveys        SurveyMetrics      `json:"surveys"`
	PendingActions []PendingAction    `json:"pending_actions"`
}

// PatientMetrics contains registry metrics.
type PatientMetrics struct {
	Total       int `json:"total"`
	NewThisWeek int `json:"new_this_week"`
}

// AppointmentMetrics contains appointment outcome metrics.
type AppointmentMetrics struct {
	Total         int     `json:"total"`
	Upcoming      int     `json:"upcoming"`
	ThisWeek      int     `json:"this_week"`
	Completed     int     `json:"completed"`
	NoShows       int     `json:"no_shows"`
	NoShowRatePct float64 `json:"no_show_rate_pct"`
}

// LeadMetrics contains consult funnel metrics.
type LeadMetrics struct {
	Total          int     `json:"total"`
	NewThisWeek    int     `json:"new_this_week"`
	Converted      int     `json:"converted"`
	ConversionRate float64 `json:"conversion_rate"`
}

// SurveyMetrics contains satisfaction metrics.
type SurveyMetrics struct {
	Responses     int     `json:"responses"`
	AverageRating float64 `json:"average_rating"`
}

// PendingAction represents an item requiring staff attention.
type PendingAction struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Link        string `json:"link,omitempty"`
}

// GetOverview returns the practice report.
// GET /admin/report
func (h *ReportHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview := OverviewResponse{Period: "week"}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	// Patient metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM patients`,
	).Scan(&overview.Patients.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM patients WHERE created_at >= $1`, weekAgo,
	).Scan(&overview.Patients.NewThisWeek)

	// Appointment metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments`,
	).Scan(&overview.Appointments.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE scheduled_at > $1`, now,
	).Scan(&overview.Appointments.Upcoming)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2`, weekAgo, now,
	).Scan(&overview.Appointments.ThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'COMPLETED'`,
	).Scan(&overview.Appointments.Completed)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'NO_SHOW'`,
	).Scan(&overview.Appointments.NoShows)

	if overview.Appointments.Total > 0 {
		overview.Appointments.NoShowRatePct =
			float64(overview.Appointments.NoShows) / float64(overview.Appointments.Total) * 100
	}

	// Lead funnel metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM leads`,
	).Scan(&overview.Leads.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM leads WHERE created_at >= $1`, weekAgo,
	).Scan(&overview.Leads.NewThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM leads WHERE stage = 'converted'`,
	).Scan(&overview.Leads.Converted)

	if overview.Leads.Total > 0 {
		overview.Leads.ConversionRate =
			float64(overview.Leads.Converted) / float64(overview.Leads.Total) * 100
	}

	// Survey metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM surveys WHERE created_at >= $1`, weekAgo,
	).Scan(&overview.Surveys.Responses, &overview.Surveys.AverageRating)

	overview.PendingActions = h.getPendingActions(r)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(overview); err != nil {
		h.logger.Error("failed to encode admin overview", "error", err)
	}
}

func (h *ReportHandler) getPendingActions(r *http.Request) []PendingAction {
	var actions []PendingAction

	// Appointments past their slot that nobody closed out
	var overdue int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments
		 WHERE status IN ('SCHEDULED', 'CONFIRMED')
		   AND scheduled_at < NOW() - INTERVAL '30 minutes'`,
	).Scan(&overdue)
	if overdue > 0 {
		actions = append(actions, PendingAction{
			Type:        "overdue_appointment",
			Priority:    "high",
			Description: "Appointments past their time with no check-in or no-show recorded",
			Count:       overdue,
			Link:        "/appointments/day",
		})
	}

	// Consultations left open past the completion window
	var stuck int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments
		 WHERE status = 'IN_CONSULTATION'
		   AND scheduled_at < NOW() - INTERVAL '2 hours'`,
	).Scan(&stuck)
	if stuck > 0 {
		actions = append(actions, PendingAction{
			Type:        "stuck_consultation",
			Priority:    "medium",
			Description: "Consultations still open past their completion deadline",
			Count:       stuck,
			Link:        "/appointments/day",
		})
	}

	// Fresh leads nobody has contacted
	var untouched int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM leads
		 WHERE stage = 'new' AND created_at < NOW() - INTERVAL '24 hours'`,
	).Scan(&untouched)
	if untouched > 0 {
		actions = append(actions, PendingAction{
			Type:        "stale_lead",
			Priority:    "medium",
			Description: "Leads older than a day still waiting for first contact",
			Count:       untouched,
			Link:        "/leads?stage=new",
		})
	}

	return actions
}
