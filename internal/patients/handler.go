package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Handler handles HTTP requests for the patient registry.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new patients handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Routes mounts the patient endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{patientID}", h.Get)
	return r
}

// Create handles POST /patients requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create patient", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("patient registered", "id", patient.ID, "diagnosis", patient.Diagnosis)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(patient)
}

// Get handles GET /patients/{patientID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patientID")

	patient, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient", "error", err, "id", id)
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patient)
}

// ListPatientsResponse is the response for listing patients.
type ListPatientsResponse struct {
	Patients []*Patient `json:"patients"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// List handles GET /patients requests with optional q, diagnosis, limit and
// offset query params.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
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
	filter.Query = r.URL.Query().Get("q")
	filter.Diagnosis = r.URL.Query().Get("diagnosis")

	patients, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}

	response := ListPatientsResponse{
		Patients: patients,
		Count:    len(patients),
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
