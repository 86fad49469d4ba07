package appointments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/http/middleware"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// handlerEngine keeps the clinic open around the clock so tests that go
// through time.Now inside the handler stay deterministic. Lifecycle windows
// keep their defaults.
func handlerEngine() *admission.Engine {
	cfg := admission.DefaultConfig()
	cfg.Location = time.UTC
	cfg.WorkStartHour = 0
	cfg.WorkEndHour = 24
	cfg.WorkDays = []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	return admission.New(cfg)
}

func newTestRouter(store *fakeStore) chi.Router {
	svc := NewService(store, handlerEngine(), nil, nil, logging.Default())
	return NewHandler(svc, logging.Default()).Routes()
}

func liveAppointment(store *fakeStore, status admission.Status, until time.Duration) *Appointment {
	sched := time.Now().Add(until)
	return store.add(&Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ScheduledAt: sched,
		Reason:      ReasonFollowUp,
		Status:      status,
		CreatedAt:   sched.Add(-72 * time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandlerSchedule(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doJSON(t, router, http.MethodPost, "/", CreateAppointmentRequest{
		PatientID:   uuid.NewString(),
		ScheduledAt: time.Now().Add(72 * time.Hour),
		Reason:      ReasonHernia,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(admission.StatusScheduled), body["status"])
}

func TestHandlerSchedule_BadRequests(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doJSON(t, router, http.MethodPost, "/", CreateAppointmentRequest{
		PatientID:   uuid.NewString(),
		ScheduledAt: time.Now().Add(72 * time.Hour),
		Reason:      "liposuction",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestHandlerGet_NotFound(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doJSON(t, router, http.MethodGet, "/"+uuid.NewString()+"/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/not-a-uuid/", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCheckIn(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 10*time.Minute)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/%s/check-in", appt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, string(admission.StatusCheckedIn), body["status"])
}

func TestHandlerCheckIn_TooEarlyConflict(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 3*time.Hour)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/%s/check-in", appt.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(admission.CategoryTooEarly), body["category"])
	assert.NotEmpty(t, body["reason"])
}

func TestHandlerCheckIn_StaleConflict(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 10*time.Minute)
	store.updateErr = ErrStaleAppointment
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/%s/check-in", appt.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "modified concurrently")
}

func TestHandlerActions(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 10*time.Minute)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/%s/actions", appt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	actions, ok := body["actions"].([]any)
	require.True(t, ok)
	assert.Len(t, actions, len(admission.AllActions()))
	assert.Equal(t, string(admission.ActionCheckIn), body["suggested_action"])
}

func TestHandlerCountdown(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 3*time.Hour)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/%s/countdown?action=check_in", appt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["available"])
	assert.Greater(t, body["remaining_minutes"].(float64), float64(0))

	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/%s/countdown?action=vaporize", appt.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerConfirm(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 72*time.Hour)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/%s/confirm", appt.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(admission.StatusConfirmed), body["status"])
}

func TestHandlerReschedule(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusConfirmed, 72*time.Hour)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/%s/reschedule", appt.ID),
		RescheduleRequest{NewTime: time.Now().Add(96 * time.Hour)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, string(admission.StatusScheduled), body["status"])
}

func TestHandlerReschedule_InsideLeadTime(t *testing.T) {
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 30*time.Minute)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/%s/reschedule", appt.ID),
		RescheduleRequest{NewTime: time.Now().Add(96 * time.Hour)})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(admission.CategoryTooLate), decodeBody(t, rec)["category"])
}

// Overrides only take effect for authenticated admins; anonymous and
// non-admin requests asking for one are evaluated without it.
func TestHandlerOverrideRequiresAdmin(t *testing.T) {
	const secret = "test-secret"
	store := newFakeStore()
	appt := liveAppointment(store, admission.StatusScheduled, 3*time.Hour)

	root := chi.NewRouter()
	root.Use(middleware.StaffJWT(secret))
	root.Mount("/", newTestRouter(store))

	signToken := func(role string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.StaffClaims{Role: role})
		signed, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return signed
	}

	do := func(role string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(ActionRequest{AllowOverride: true}))
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/%s/check-in", appt.ID), &buf)
		req.Header.Set("Authorization", "Bearer "+signToken(role))
		rec := httptest.NewRecorder()
		root.ServeHTTP(rec, req)
		return rec
	}

	rec := do("assistant")
	assert.Equal(t, http.StatusConflict, rec.Code, "non-admin override is ignored")

	rec = do("admin")
	assert.Equal(t, http.StatusOK, rec.Code, "admin override bypasses the time window")
}

func TestHandlerListByPatient(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	appt := liveAppointment(store, admission.StatusCompleted, -24*time.Hour)
	liveAppointment(store, admission.StatusScheduled, 24*time.Hour)

	rec := doJSON(t, router, http.MethodGet, "/patient/"+appt.PatientID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])

	rec = doJSON(t, router, http.MethodGet, "/patient/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
