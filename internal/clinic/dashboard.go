package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/appointments"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

const waitMetricName = "clinic_admission_checkin_wait_minutes"

type dashboardDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type dashboardRepo interface {
	AppointmentLoadByDay(ctx context.Context, start, end time.Time) ([]DailyLoad, error)
}

// apptLister provides the live appointments the urgency scan runs over.
type apptLister interface {
	ListDay(ctx context.Context, t time.Time) ([]appointments.Appointment, error)
}

// DailyLoad captures appointment outcome counts by scheduled day.
type DailyLoad struct {
	Day       time.Time `json:"-"`
	DayLabel  string    `json:"day"`
	Booked    int64     `json:"booked"`
	Completed int64     `json:"completed"`
	NoShows   int64     `json:"no_shows"`
}

// WaitTimeSnapshot summarizes the check-in wait histogram.
type WaitTimeSnapshot struct {
	Total   int64            `json:"total"`
	P50Min  float64          `json:"p50_minutes"`
	P90Min  float64          `json:"p90_minutes"`
	Buckets []WaitTimeBucket `json:"buckets"`
}

type WaitTimeBucket struct {
	LeMinutes float64 `json:"le_minutes"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// UrgentAppointment is one appointment flagged by the rule engine.
type UrgentAppointment struct {
	Appointment appointments.Appointment `json:"appointment"`
	Urgency     admission.Urgency        `json:"urgency"`
}

// Dashboard is the operational view the front desk keeps open.
type Dashboard struct {
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	TotalBooked int64               `json:"total_booked"`
	Completed   int64               `json:"completed"`
	NoShows     int64               `json:"no_shows"`
	WaitTime    WaitTimeSnapshot    `json:"wait_time"`
	Daily       []DailyLoad         `json:"daily"`
	Urgent      []UrgentAppointment `json:"urgent"`
}

// DashboardRepository queries operational metrics from the database.
type DashboardRepository struct {
	db dashboardDB
}

func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	if pool == nil {
		panic("clinic: pgx pool required for dashboard")
	}
	return &DashboardRepository{db: pool}
}

func NewDashboardRepositoryWithDB(db dashboardDB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) AppointmentLoadByDay(ctx context.Context, start, end time.Time) ([]DailyLoad, error) {
	if end.Before(start) || end.Equal(start) {
		return nil, fmt.Errorf("clinic dashboard: invalid time range")
	}

	query := `
		SELECT date_trunc('day', scheduled_at) AS day,
		       COUNT(*) AS booked,
		       COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		       COUNT(*) FILTER (WHERE status = 'NO_SHOW') AS no_shows
		FROM appointments
		WHERE scheduled_at >= $1
		  AND scheduled_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("clinic dashboard: query load: %w", err)
	}
	defer rows.Close()

	var results []DailyLoad
	for rows.Next() {
		var day time.Time
		var booked, completed, noShows int64
		if err := rows.Scan(&day, &booked, &completed, &noShows); err != nil {
			return nil, fmt.Errorf("clinic dashboard: scan load: %w", err)
		}
		results = append(results, DailyLoad{
			Day:       day.UTC(),
			DayLabel:  day.UTC().Format("2006-01-02"),
			Booked:    booked,
			Completed: completed,
			NoShows:   noShows,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic dashboard: iterate load: %w", err)
	}
	return results, nil
}

// DashboardHandler serves the operational dashboard JSON.
type DashboardHandler struct {
	repo     dashboardRepo
	appts    apptLister
	engine   *admission.Engine
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewDashboardHandler(repo dashboardRepo, appts apptLister, engine *admission.Engine, gatherer prometheus.Gatherer, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &DashboardHandler{
		repo:     repo,
		appts:    appts,
		engine:   engine,
		gatherer: gatherer,
		logger:   logger,
	}
}

// GetDashboard returns the practice's operational metrics.
// GET /clinic/dashboard
// Query params:
//   - start: RFC3339 timestamp (optional, requires end)
//   - end: RFC3339 timestamp (optional, requires start)
//   - days: integer window (default 7) when start/end omitted
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, `{"error":"dashboard disabled (db not configured)"}`, http.StatusServiceUnavailable)
		return
	}

	start, end, err := parseDashboardWindow(r)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	daily, err := h.repo.AppointmentLoadByDay(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to query dashboard load", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	daily = fillMissingDays(daily, start, end)

	var booked, completed, noShows int64
	for _, day := range daily {
		booked += day.Booked
		completed += day.Completed
		noShows += day.NoShows
	}

	resp := Dashboard{
		PeriodStart: start.UTC().Format(time.RFC3339),
		PeriodEnd:   end.UTC().Format(time.RFC3339),
		TotalBooked: booked,
		Completed:   completed,
		NoShows:     noShows,
		WaitTime:    snapshotWaitTime(h.gatherer),
		Daily:       daily,
		Urgent:      h.urgentAppointments(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// urgentAppointments runs the rule engine's urgency scan over today's
// appointments. A missing appointments source just leaves the list empty.
func (h *DashboardHandler) urgentAppointments(ctx context.Context) []UrgentAppointment {
	if h.appts == nil || h.engine == nil {
		return nil
	}
	today, err := h.appts.ListDay(ctx, time.Now())
	if err != nil {
		h.logger.Error("failed to list today's appointments for urgency scan", "error", err)
		return nil
	}

	var out []UrgentAppointment
	now := time.Now()
	for _, appt := range today {
		urgency, flagged := h.engine.NeedsUrgentAttention(appt.Snapshot(), now)
		if !flagged {
			continue
		}
		out = append(out, UrgentAppointment{Appointment: appt, Urgency: urgency})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Urgency.ElapsedMinutes > out[j].Urgency.ElapsedMinutes
	})
	return out
}

func parseDashboardWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
		}
		return start.UTC(), end.UTC(), nil
	}

	days := 7
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days; must be 1-90")
		}
		days = parsed
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -days)
	return start, end, nil
}

func fillMissingDays(existing []DailyLoad, start, end time.Time) []DailyLoad {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	lookup := map[string]DailyLoad{}
	for _, d := range existing {
		key := d.Day.UTC().Format("2006-01-02")
		lookup[key] = d
	}

	out := make([]DailyLoad, 0, int(endDay.Sub(startDay).Hours()/24)+1)
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if found, ok := lookup[key]; ok {
			out = append(out, found)
			continue
		}
		out = append(out, DailyLoad{
			Day:      day,
			DayLabel: key,
		})
	}
	return out
}

func snapshotWaitTime(gatherer prometheus.Gatherer) WaitTimeSnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return WaitTimeSnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == waitMetricName {
			family = mf
			break
		}
	}
	if family == nil {
		return WaitTimeSnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		histogram := metric.GetHistogram()
		if histogram == nil {
			continue
		}
		sampleCount += histogram.GetSampleCount()
		for _, b := range histogram.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return WaitTimeSnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]WaitTimeBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(cum)
		if cum >= prev {
			count = int64(cum - prev)
		}

		if math.IsInf(upper, 1) {
			if count > 0 {
				buckets = append(buckets, WaitTimeBucket{
					LeMinutes: lastFiniteUpper,
					Label:     fmt.Sprintf(">%.0fm", lastFiniteUpper),
					Count:     count,
				})
			}
			prev = cum
			continue
		}

		lastFiniteUpper = upper
		buckets = append(buckets, WaitTimeBucket{
			LeMinutes: upper,
			Count:     count,
		})
		prev = cum
	}

	return WaitTimeSnapshot{
		Total:   int64(sampleCount),
		P50Min:  histogramQuantile(0.50, sampleCount, uppers, cumulativeByUpper),
		P90Min:  histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper),
		Buckets: buckets,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		return prevUpper + fraction*(upper-prevUpper)
	}

	return uppers[len(uppers)-1]
}
