package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/appointments"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/observability/metrics"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

func TestAppointmentLoadByDay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	mock.ExpectQuery("FROM appointments").
		WithArgs(start, end).
		WillReturnRows(pgxmock.NewRows([]string{"day", "booked", "completed", "no_shows"}).
			AddRow(start, int64(8), int64(6), int64(1)).
			AddRow(start.AddDate(0, 0, 1), int64(5), int64(5), int64(0)))

	repo := NewDashboardRepositoryWithDB(mock)
	got, err := repo.AppointmentLoadByDay(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}
	if got[0].DayLabel != "2024-03-04" || got[0].Booked != 8 {
		t.Errorf("unexpected first day: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAppointmentLoadByDay_InvalidRange(t *testing.T) {
	repo := NewDashboardRepositoryWithDB(nil)
	now := time.Now()

	if _, err := repo.AppointmentLoadByDay(context.Background(), now, now); err == nil {
		t.Fatal("expected error for empty range")
	}
	if _, err := repo.AppointmentLoadByDay(context.Background(), now, now.Add(-time.Hour)); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestFillMissingDays(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	existing := []DailyLoad{
		{Day: start.AddDate(0, 0, 1), DayLabel: "2024-03-05", Booked: 4},
	}

	filled := fillMissingDays(existing, start, end)
	if len(filled) != 3 {
		t.Fatalf("expected 3 days, got %d", len(filled))
	}
	if filled[0].Booked != 0 || filled[0].DayLabel != "2024-03-04" {
		t.Errorf("expected empty first day, got %+v", filled[0])
	}
	if filled[1].Booked != 4 {
		t.Errorf("expected existing day preserved, got %+v", filled[1])
	}
}

func TestSnapshotWaitTime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAdmissionMetrics(reg)
	m.ObserveWait(8)
	m.ObserveWait(12)
	m.ObserveWait(40)

	snap := snapshotWaitTime(reg)
	if snap.Total != 3 {
		t.Fatalf("expected 3 samples, got %d", snap.Total)
	}
	if snap.P50Min <= 0 {
		t.Errorf("expected positive p50, got %v", snap.P50Min)
	}
	if snap.P90Min < snap.P50Min {
		t.Errorf("expected p90 >= p50, got p50=%v p90=%v", snap.P50Min, snap.P90Min)
	}
	if len(snap.Buckets) == 0 {
		t.Error("expected bucket breakdown")
	}
}

func TestSnapshotWaitTime_EmptyRegistry(t *testing.T) {
	snap := snapshotWaitTime(prometheus.NewRegistry())
	if snap.Total != 0 || len(snap.Buckets) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

type stubDashboardRepo struct {
	daily []DailyLoad
}

func (s stubDashboardRepo) AppointmentLoadByDay(context.Context, time.Time, time.Time) ([]DailyLoad, error) {
	return s.daily, nil
}

type stubLister struct {
	appts []appointments.Appointment
}

func (s stubLister) ListDay(context.Context, time.Time) ([]appointments.Appointment, error) {
	return s.appts, nil
}

func waitingAppointment(waited time.Duration) appointments.Appointment {
	checkedInAt := time.Now().Add(-waited)
	return appointments.Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ScheduledAt: checkedInAt,
		Status:      admission.StatusCheckedIn,
		UpdatedAt:   checkedInAt,
	}
}

func TestGetDashboard(t *testing.T) {
	cfg := admission.DefaultConfig()
	cfg.Location = time.UTC
	engine := admission.New(cfg)

	day := time.Now().UTC().Truncate(24 * time.Hour)
	handler := NewDashboardHandler(
		stubDashboardRepo{daily: []DailyLoad{
			{Day: day, DayLabel: day.Format("2006-01-02"), Booked: 6, Completed: 4, NoShows: 1},
		}},
		stubLister{appts: []appointments.Appointment{
			waitingAppointment(45 * time.Minute),
			waitingAppointment(5 * time.Minute),
		}},
		engine,
		prometheus.NewRegistry(),
		logging.Default(),
	)

	req := httptest.NewRequest(http.MethodGet, "/clinic/dashboard?days=7", nil)
	w := httptest.NewRecorder()
	handler.GetDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var dash Dashboard
	if err := json.NewDecoder(w.Body).Decode(&dash); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if dash.TotalBooked != 6 || dash.Completed != 4 || dash.NoShows != 1 {
		t.Errorf("unexpected totals: %+v", dash)
	}
	if len(dash.Daily) != 7 {
		t.Errorf("expected 7 filled days, got %d", len(dash.Daily))
	}
	if len(dash.Urgent) != 1 {
		t.Fatalf("expected exactly the long-waiting patient flagged, got %d", len(dash.Urgent))
	}
	if dash.Urgent[0].Urgency.Severity != admission.SeverityMedium {
		t.Errorf("expected medium severity, got %s", dash.Urgent[0].Urgency.Severity)
	}
}

func TestGetDashboard_BadWindow(t *testing.T) {
	handler := NewDashboardHandler(stubDashboardRepo{}, nil, nil, prometheus.NewRegistry(), logging.Default())

	for _, target := range []string{
		"/clinic/dashboard?start=2024-03-01T00:00:00Z",
		"/clinic/dashboard?days=0",
		"/clinic/dashboard?days=365",
		"/clinic/dashboard?start=2024-03-02T00:00:00Z&end=2024-03-01T00:00:00Z",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.GetDashboard(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected %d, got %d", target, http.StatusBadRequest, w.Code)
		}
	}
}

func TestGetDashboard_NoRepo(t *testing.T) {
	handler := NewDashboardHandler(nil, nil, nil, prometheus.NewRegistry(), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/clinic/dashboard", nil)
	w := httptest.NewRecorder()
	handler.GetDashboard(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}
