package clinic

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Handler groups the clinic-level endpoints: stats, dashboard and settings.
type Handler struct {
	stats     *StatsHandler
	dashboard *DashboardHandler
	store     *Store
	logger    *logging.Logger
}

// NewHandler creates the clinic HTTP handler. The settings store may be nil
// when redis is not configured; the settings endpoints then report 503.
func NewHandler(stats *StatsHandler, dashboard *DashboardHandler, store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		stats:     stats,
		dashboard: dashboard,
		store:     store,
		logger:    logger,
	}
}

// Routes mounts the clinic endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", h.stats.GetStats)
	r.Get("/dashboard", h.dashboard.GetDashboard)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)
	return r
}

// GetSettings returns the staff-adjustable operational windows.
// GET /clinic/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, `{"error":"settings disabled (redis not configured)"}`, http.StatusServiceUnavailable)
		return
	}
	settings, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load clinic settings", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settings)
}

// PutSettings replaces the operational windows.
// PUT /clinic/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, `{"error":"settings disabled (redis not configured)"}`, http.StatusServiceUnavailable)
		return
	}
	var settings Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := settings.Validate(); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.Set(r.Context(), &settings); err != nil {
		h.logger.Error("failed to save clinic settings", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("clinic settings updated",
		"timezone", settings.Timezone,
		"work_start", settings.WorkStartHour,
		"work_end", settings.WorkEndHour)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settings)
}
