package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/http/middleware"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// Handler exposes appointment lifecycle endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates the appointments HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("appointments: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the appointment endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Schedule)
	r.Get("/day", h.ListDay)
	r.Get("/patient/{patientID}", h.ListByPatient)
	r.Route("/{appointmentID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/actions", h.Actions)
		r.Get("/countdown", h.Countdown)
		r.Post("/confirm", h.Confirm)
		r.Post("/check-in", h.action(admission.ActionCheckIn))
		r.Post("/start", h.action(admission.ActionStartConsultation))
		r.Post("/complete", h.action(admission.ActionComplete))
		r.Post("/cancel", h.action(admission.ActionCancel))
		r.Post("/no-show", h.action(admission.ActionNoShow))
		r.Post("/reschedule", h.Reschedule)
	})
	return r
}

// Schedule books a new appointment.
// POST /appointments
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.svc.Schedule(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, appt)
}

// Get returns one appointment.
// GET /appointments/{appointmentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}

// ListDay returns the clinic-local day of appointments.
// GET /appointments/day?date=2024-03-04
func (h *Handler) ListDay(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.svc.Engine().Config().Location)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
			return
		}
		day = parsed
	}
	appts, err := h.svc.ListDay(r.Context(), day)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

// ListByPatient returns a patient's appointment history.
// GET /appointments/patient/{patientID}
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	appts, err := h.svc.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

// Actions returns the availability projection for UI control gating.
// GET /appointments/{appointmentID}/actions
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	board, err := h.svc.Actions(r.Context(), id, time.Now(), h.ruleContext(r, false))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// Countdown supports live countdown UI for time-gated actions.
// GET /appointments/{appointmentID}/countdown?action=check_in
func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	action, err := admission.ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown action")
		return
	}
	cd, err := h.svc.Countdown(r.Context(), id, action, time.Now())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cd)
}

// Confirm marks a scheduled appointment as confirmed.
// POST /appointments/{appointmentID}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Confirm(r.Context(), id, h.ruleContext(r, h.overrideRequested(r)))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}

// action builds the handler for one mutating lifecycle endpoint.
func (h *Handler) action(action admission.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.appointmentID(w, r)
		if !ok {
			return
		}
		appt, err := h.svc.Perform(r.Context(), id, action, time.Now(), h.ruleContext(r, h.overrideRequested(r)))
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, appt)
	}
}

// Reschedule books a replacement slot.
// POST /appointments/{appointmentID}/reschedule
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	replacement, err := h.svc.Reschedule(r.Context(), id, req.NewTime, time.Now(), h.ruleContext(r, req.AllowOverride))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, replacement)
}

func (h *Handler) appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid appointment id")
		return uuid.Nil, false
	}
	return id, true
}

// overrideRequested reads the override flag from the request body without
// consuming it for endpoints that decode no other fields.
func (h *Handler) overrideRequested(r *http.Request) bool {
	if r.Body == nil {
		return false
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return false
	}
	return req.AllowOverride
}

// ruleContext builds the engine context from the authenticated staff
// member. Only admins may actually exercise an override; everyone else's
// request for one is ignored.
func (h *Handler) ruleContext(r *http.Request, wantOverride bool) *admission.Context {
	claims, _ := middleware.StaffClaimsFromContext(r.Context())
	return &admission.Context{
		AllowOverride: wantOverride && middleware.IsAdmin(r.Context()),
		UserRole:      claims.Role,
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	if denied, ok := AsDenied(err); ok {
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":    "action not allowed",
			"action":   denied.Action,
			"category": denied.Decision.Category,
			"reason":   denied.Decision.Reason,
		})
		return
	}
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		respondError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrStaleAppointment):
		respondError(w, http.StatusConflict, "appointment was modified concurrently, reload and retry")
	case errors.Is(err, ErrMissingPatient),
		errors.Is(err, ErrMissingSchedule),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, admission.ErrUnknownAction),
		errors.Is(err, admission.ErrUnknownStatus):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("appointments handler error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
