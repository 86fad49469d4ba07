package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

func expectCount(mock pgxmock.PgxPoolIface, fragment string, count int64, args ...any) {
	exp := mock.ExpectQuery(fragment)
	if len(args) > 0 {
		anyArgs := make([]any, len(args))
		copy(anyArgs, args)
		exp = exp.WithArgs(anyArgs...)
	}
	exp.WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(count))
}

func TestGetStats_Period(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	expectCount(mock, "FROM appointments WHERE TRUE", 40, start, end)
	expectCount(mock, "status = 'COMPLETED'", 28, start, end)
	expectCount(mock, "status = 'CANCELLED'", 4, start, end)
	expectCount(mock, "status = 'NO_SHOW'", 6, start, end)
	expectCount(mock, "FROM patients", 12, start, end)
	expectCount(mock, "FROM leads", 25, start, end)

	repo := NewStatsRepositoryWithDB(mock)
	stats, err := repo.GetStats(context.Background(), &start, &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalAppointments != 40 {
		t.Errorf("expected 40 appointments, got %d", stats.TotalAppointments)
	}
	if stats.CompletionRatePct != 70 {
		t.Errorf("expected 70%% completion, got %v", stats.CompletionRatePct)
	}
	if stats.NoShowRatePct != 15 {
		t.Errorf("expected 15%% no-shows, got %v", stats.NoShowRatePct)
	}
	if stats.PeriodStart != start.Format(time.RFC3339) {
		t.Errorf("unexpected period start %q", stats.PeriodStart)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetStats_AllTime(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectCount(mock, "FROM appointments WHERE TRUE", 0)
	expectCount(mock, "status = 'COMPLETED'", 0)
	expectCount(mock, "status = 'CANCELLED'", 0)
	expectCount(mock, "status = 'NO_SHOW'", 0)
	expectCount(mock, "FROM patients", 0)
	expectCount(mock, "FROM leads", 0)

	repo := NewStatsRepositoryWithDB(mock)
	stats, err := repo.GetStats(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PeriodStart != "all-time" || stats.PeriodEnd != "now" {
		t.Errorf("expected all-time period, got %q..%q", stats.PeriodStart, stats.PeriodEnd)
	}
	if stats.CompletionRatePct != 0 {
		t.Errorf("expected zero rate with no appointments, got %v", stats.CompletionRatePct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetStats_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM appointments WHERE TRUE").
		WillReturnError(errors.New("connection reset"))

	repo := NewStatsRepositoryWithDB(mock)
	if _, err := repo.GetStats(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStatsHandler_BadWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	handler := NewStatsHandler(NewStatsRepositoryWithDB(mock), logging.Default())

	// Only start provided
	req := httptest.NewRequest(http.MethodGet, "/clinic/stats?start=2024-03-01T00:00:00Z", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, w.Code)
	}

	// Bad timestamp
	req = httptest.NewRequest(http.MethodGet, "/clinic/stats?start=yesterday&end=today", nil)
	w = httptest.NewRecorder()
	handler.GetStats(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestStatsHandler_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectCount(mock, "FROM appointments WHERE TRUE", 10)
	expectCount(mock, "status = 'COMPLETED'", 9)
	expectCount(mock, "status = 'CANCELLED'", 0)
	expectCount(mock, "status = 'NO_SHOW'", 1)
	expectCount(mock, "FROM patients", 3)
	expectCount(mock, "FROM leads", 5)

	handler := NewStatsHandler(NewStatsRepositoryWithDB(mock), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/clinic/stats", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}
	var stats Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.NewLeads != 5 {
		t.Errorf("expected 5 leads, got %d", stats.NewLeads)
	}
}
