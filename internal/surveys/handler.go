package surveys

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Handler handles HTTP requests for surveys.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new surveys handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Routes mounts the survey endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/summary", h.Summary)
	r.Get("/appointment/{appointmentID}", h.ListByAppointment)
	return r
}

// Submit handles POST /surveys requests.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	survey, err := h.repo.Submit(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidRating) || errors.Is(err, ErrMissingAppointment) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to store survey", "error", err)
		http.Error(w, "failed to store survey", http.StatusInternalServerError)
		return
	}

	h.logger.Info("survey submitted", "id", survey.ID, "rating", survey.Rating)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(survey)
}

// ListByAppointment handles GET /surveys/appointment/{appointmentID}.
func (h *Handler) ListByAppointment(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.repo.ListByAppointment(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.logger.Error("failed to list surveys", "error", err)
		http.Error(w, "failed to list surveys", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"surveys": surveys,
		"count":   len(surveys),
	})
}

// Summary handles GET /surveys/summary?days=30.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive number", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)
	summary, err := h.repo.Summarize(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to summarize surveys", "error", err)
		http.Error(w, "failed to summarize surveys", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
