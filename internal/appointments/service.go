package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/observability/metrics"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.appointments")

// store is the persistence surface the service needs; the Repository
// implements it and tests inject fakes.
type store interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next admission.Status, expectedUpdatedAt time.Time) (*Appointment, error)
	Reschedule(ctx context.Context, old *Appointment, newTime time.Time) (*Appointment, error)
}

// Notifier sends patient-facing messages for lifecycle events.
type Notifier interface {
	AppointmentConfirmed(ctx context.Context, appt *Appointment)
	AppointmentRescheduled(ctx context.Context, old, replacement *Appointment)
}

// Service owns appointment lifecycle mutations. Every status change is
// re-validated through the admission engine before it is persisted, so the
// rules hold even for callers that bypass the dashboard UI.
type Service struct {
	repo     store
	engine   *admission.Engine
	metrics  *metrics.AdmissionMetrics
	notifier Notifier
	logger   *logging.Logger
}

// NewService constructs the appointments service. Metrics and notifier are
// optional; repo and engine are not.
func NewService(repo store, engine *admission.Engine, m *metrics.AdmissionMetrics, notifier Notifier, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if engine == nil {
		panic("appointments: admission engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, engine: engine, metrics: m, notifier: notifier, logger: logger}
}

// Engine exposes the rule engine for read-only projections.
func (s *Service) Engine() *admission.Engine {
	return s.engine
}

// Schedule books a new appointment in SCHEDULED state.
func (s *Service) Schedule(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.schedule")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, ErrMissingPatient
	}

	appt := &Appointment{
		PatientID:    patientID,
		ScheduledAt:  req.ScheduledAt,
		DurationMins: req.DurationMins,
		Reason:       req.Reason,
		Status:       admission.StatusScheduled,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("appointment.id", appt.ID.String()))
	s.logger.Info("appointment scheduled",
		"appointment_id", appt.ID, "patient_id", appt.PatientID,
		"scheduled_at", appt.ScheduledAt, "reason", appt.Reason)
	return appt, nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListDay returns the clinic-local day of appointments containing t.
func (s *Service) ListDay(ctx context.Context, t time.Time) ([]Appointment, error) {
	loc := s.engine.Config().Location
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return s.repo.ListBetween(ctx, start, start.AddDate(0, 0, 1))
}

// ListByPatient returns a patient's appointment history.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// ActionBoard is the per-appointment projection the dashboard renders:
// every action with its decision, the suggested next step, and any
// urgency flag.
type ActionBoard struct {
	Appointment *Appointment                  `json:"appointment"`
	Actions     []admission.ActionAvailability `json:"actions"`
	Suggested   admission.Action               `json:"suggested_action,omitempty"`
	Urgency     *admission.Urgency             `json:"urgency,omitempty"`
}

// Actions evaluates the full availability projection for one appointment.
func (s *Service) Actions(ctx context.Context, id uuid.UUID, now time.Time, rctx *admission.Context) (*ActionBoard, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := appt.Snapshot()
	board := &ActionBoard{
		Appointment: appt,
		Actions:     s.engine.AvailableActions(snap, now, rctx),
	}
	if action, ok := s.engine.SuggestNextAction(snap, now, rctx); ok {
		board.Suggested = action
	}
	if urgency, flagged := s.engine.NeedsUrgentAttention(snap, now); flagged {
		board.Urgency = &urgency
	}
	return board, nil
}

// Countdown reports when a time-gated action becomes available.
func (s *Service) Countdown(ctx context.Context, id uuid.UUID, action admission.Action, now time.Time) (admission.Countdown, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return admission.Countdown{}, err
	}
	return s.engine.TimeUntilAction(appt.Snapshot(), action, now), nil
}

// Perform executes one mutating lifecycle action: check-in, start,
// complete, cancel or no-show. Reschedule goes through Reschedule.
func (s *Service) Perform(ctx context.Context, id uuid.UUID, action admission.Action, now time.Time, rctx *admission.Context) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.perform",
		trace.WithAttributes(
			attribute.String("appointment.id", id.String()),
			attribute.String("appointment.action", string(action)),
		))
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	decision, err := s.engine.Check(action, appt.Snapshot(), now, rctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveAction(string(action), decision.Allowed)
	if !decision.Allowed {
		s.metrics.ObserveDenial(string(action), string(decision.Category))
		s.logDenial(appt, action, decision, rctx)
		return nil, &DeniedError{Action: action, Decision: decision}
	}
	if decision.Next == "" {
		// Read-only action; nothing to persist.
		return appt, nil
	}

	// Defense in depth: the transition table guards the write path even if
	// a validator and the table ever drift apart.
	if t := s.engine.CanTransition(appt.Status, decision.Next, rctx); !t.Allowed {
		s.metrics.ObserveDenial(string(action), string(t.Category))
		return nil, &DeniedError{Action: action, Decision: t}
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, decision.Next, appt.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.observeDurations(action, appt, now)
	s.logger.Info("appointment status changed",
		"appointment_id", appt.ID,
		"action", action,
		"from", appt.Status,
		"to", updated.Status,
		"override", rctx != nil && rctx.AllowOverride)
	return updated, nil
}

// Confirm moves SCHEDULED to CONFIRMED. Confirmation has no time window;
// only the transition table applies.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, rctx *admission.Context) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.confirm")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t := s.engine.CanTransition(appt.Status, admission.StatusConfirmed, rctx); !t.Allowed {
		return nil, &DeniedError{Action: "confirm", Decision: t}
	}
	updated, err := s.repo.UpdateStatus(ctx, appt.ID, admission.StatusConfirmed, appt.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.AppointmentConfirmed(ctx, updated)
	}
	s.logger.Info("appointment confirmed", "appointment_id", appt.ID)
	return updated, nil
}

// Reschedule validates the reschedule action, then atomically marks the
// old slot RESCHEDULED and books the replacement.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newTime time.Time, now time.Time, rctx *admission.Context) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	if newTime.IsZero() {
		return nil, ErrMissingSchedule
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := s.engine.CanReschedule(appt.Snapshot(), now, rctx)
	s.metrics.ObserveAction(string(admission.ActionReschedule), decision.Allowed)
	if !decision.Allowed {
		s.metrics.ObserveDenial(string(admission.ActionReschedule), string(decision.Category))
		s.logDenial(appt, admission.ActionReschedule, decision, rctx)
		return nil, &DeniedError{Action: admission.ActionReschedule, Decision: decision}
	}

	replacement, err := s.repo.Reschedule(ctx, appt, newTime)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.AppointmentRescheduled(ctx, appt, replacement)
	}
	s.logger.Info("appointment rescheduled",
		"appointment_id", appt.ID,
		"replacement_id", replacement.ID,
		"new_time", newTime)
	return replacement, nil
}

// observeDurations feeds the wait/consultation histograms. UpdatedAt holds
// the previous status-change instant, which is the check-in time when
// starting and the start time when completing.
func (s *Service) observeDurations(action admission.Action, prev *Appointment, now time.Time) {
	if prev.UpdatedAt.IsZero() {
		return
	}
	elapsed := now.Sub(prev.UpdatedAt).Minutes()
	if elapsed < 0 {
		return
	}
	switch action {
	case admission.ActionStartConsultation:
		s.metrics.ObserveWait(elapsed)
	case admission.ActionComplete:
		s.metrics.ObserveConsultation(elapsed)
	}
}

func (s *Service) logDenial(appt *Appointment, action admission.Action, d admission.Decision, rctx *admission.Context) {
	role := ""
	if rctx != nil {
		role = rctx.UserRole
	}
	s.logger.Warn("appointment action denied",
		"appointment_id", appt.ID,
		"action", action,
		"status", appt.Status,
		"category", d.Category,
		"reason", d.Reason,
		"role", role)
}
