package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Stats aggregates appointment outcomes for one period.
type Stats struct {
	PeriodStart       string  `json:"period_start"`
	PeriodEnd         string  `json:"period_end"`
	TotalAppointments int64   `json:"total_appointments"`
	Completed         int64   `json:"completed"`
	Cancelled         int64   `json:"cancelled"`
	NoShows           int64   `json:"no_shows"`
	NewPatients       int64   `json:"new_patients"`
	NewLeads          int64   `json:"new_leads"`
	CompletionRatePct float64 `json:"completion_rate_pct"`
	NoShowRatePct     float64 `json:"no_show_rate_pct"`
}

// statsDB defines the database interface needed by StatsRepository
type statsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries practice metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("clinic: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated metrics for the practice.
// Optional start/end times for filtering. If nil, returns all-time stats.
func (r *StatsRepository) GetStats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	stats := &Stats{}

	var apptFilter, createdFilter string
	var apptArgs, createdArgs []any

	if start != nil && end != nil {
		apptFilter = ` AND scheduled_at >= $1 AND scheduled_at < $2`
		createdFilter = ` WHERE created_at >= $1 AND created_at < $2`
		apptArgs = append(apptArgs, *start, *end)
		createdArgs = append(createdArgs, *start, *end)
		stats.PeriodStart = start.Format(time.RFC3339)
		stats.PeriodEnd = end.Format(time.RFC3339)
	} else {
		stats.PeriodStart = "all-time"
		stats.PeriodEnd = "now"
	}

	totalQuery := `SELECT COUNT(*) FROM appointments WHERE TRUE` + apptFilter
	if err := r.db.QueryRow(ctx, totalQuery, apptArgs...).Scan(&stats.TotalAppointments); err != nil {
		return nil, fmt.Errorf("clinic stats: count appointments: %w", err)
	}

	completedQuery := `SELECT COUNT(*) FROM appointments WHERE status = 'COMPLETED'` + apptFilter
	if err := r.db.QueryRow(ctx, completedQuery, apptArgs...).Scan(&stats.Completed); err != nil {
		return nil, fmt.Errorf("clinic stats: count completed: %w", err)
	}

	cancelledQuery := `SELECT COUNT(*) FROM appointments WHERE status = 'CANCELLED'` + apptFilter
	if err := r.db.QueryRow(ctx, cancelledQuery, apptArgs...).Scan(&stats.Cancelled); err != nil {
		return nil, fmt.Errorf("clinic stats: count cancelled: %w", err)
	}

	noShowQuery := `SELECT COUNT(*) FROM appointments WHERE status = 'NO_SHOW'` + apptFilter
	if err := r.db.QueryRow(ctx, noShowQuery, apptArgs...).Scan(&stats.NoShows); err != nil {
		return nil, fmt.Errorf("clinic stats: count no-shows: %w", err)
	}

	patientsQuery := `SELECT COUNT(*) FROM patients` + createdFilter
	if err := r.db.QueryRow(ctx, patientsQuery, createdArgs...).Scan(&stats.NewPatients); err != nil {
		return nil, fmt.Errorf("clinic stats: count patients: %w", err)
	}

	leadsQuery := `SELECT COUNT(*) FROM leads` + createdFilter
	if err := r.db.QueryRow(ctx, leadsQuery, createdArgs...).Scan(&stats.NewLeads); err != nil {
		return nil, fmt.Errorf("clinic stats: count leads: %w", err)
	}

	if stats.TotalAppointments > 0 {
		stats.CompletionRatePct = float64(stats.Completed) / float64(stats.TotalAppointments) * 100.0
		stats.NoShowRatePct = float64(stats.NoShows) / float64(stats.TotalAppointments) * 100.0
	}
	return stats, nil
}

// StatsHandler provides HTTP endpoints for practice statistics.
type StatsHandler struct {
	repo   *StatsRepository
	logger *logging.Logger
}

// NewStatsHandler creates a new stats HTTP handler.
func NewStatsHandler(repo *StatsRepository, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{
		repo:   repo,
		logger: logger,
	}
}

// GetStats returns aggregated metrics for the practice.
// GET /clinic/stats
// Query params:
//   - start: RFC3339 timestamp for period start (optional)
//   - end: RFC3339 timestamp for period end (optional)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, `{"error": "invalid start time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		start = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			http.Error(w, `{"error": "invalid end time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		end = &t
	}

	// If only one is provided, require both
	if (start == nil) != (end == nil) {
		http.Error(w, `{"error": "both start and end must be provided, or neither"}`, http.StatusBadRequest)
		return
	}

	stats, err := h.repo.GetStats(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to get clinic stats", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to encode clinic stats", "error", err)
	}
}
