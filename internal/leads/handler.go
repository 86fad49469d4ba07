package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Routes mounts the lead endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateWebLead)
	r.Get("/", h.ListLeads)
	r.Get("/{leadID}", h.Get)
	r.Post("/{leadID}/stage", h.MoveStage)
	r.Post("/{leadID}/convert", h.MarkConverted)
	return r
}

// CreateWebLead handles POST /leads requests from the public web form.
func (h *Handler) CreateWebLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "name", lead.Name, "source", lead.Source)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

// Get handles GET /leads/{leadID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load lead", "error", err)
		http.Error(w, "failed to load lead", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListLeadsFilter{
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if stage := r.URL.Query().Get("stage"); stage != "" {
		parsed := Stage(stage)
		if !parsed.IsValid() {
			http.Error(w, "unknown stage", http.StatusBadRequest)
			return
		}
		filter.Stage = parsed
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	response := ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// MoveStageRequest is the body for funnel moves.
type MoveStageRequest struct {
	Stage Stage `json:"stage"`
}

// MoveStage handles POST /leads/{leadID}/stage requests.
func (h *Handler) MoveStage(w http.ResponseWriter, r *http.Request) {
	var req MoveStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.MoveStage(r.Context(), chi.URLParam(r, "leadID"), req.Stage)
	if err != nil {
		h.respondStageError(w, err)
		return
	}

	h.logger.Info("lead stage moved", "id", lead.ID, "stage", lead.Stage)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

// MarkConvertedRequest links the registered patient on conversion.
type MarkConvertedRequest struct {
	PatientID string `json:"patient_id"`
}

// MarkConverted handles POST /leads/{leadID}/convert requests.
func (h *Handler) MarkConverted(w http.ResponseWriter, r *http.Request) {
	var req MarkConvertedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientID == "" {
		http.Error(w, "patient_id is required", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.MarkConverted(r.Context(), chi.URLParam(r, "leadID"), req.PatientID)
	if err != nil {
		h.respondStageError(w, err)
		return
	}

	h.logger.Info("lead converted", "id", lead.ID, "patient_id", lead.PatientID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

func (h *Handler) respondStageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		http.Error(w, "lead not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidStage):
		http.Error(w, "unknown stage", http.StatusBadRequest)
	case errors.Is(err, ErrIllegalStageChange):
		http.Error(w, "illegal stage change", http.StatusConflict)
	default:
		h.logger.Error("lead stage update failed", "error", err)
		http.Error(w, "failed to update lead", http.StatusInternalServerError)
	}
}
