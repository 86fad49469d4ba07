package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/appointments"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/patients"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// QuietHours suppresses patient-facing messages during the configured
// local-time window, typically overnight.
type QuietHours struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// contains reports whether t falls inside the quiet window. A window may
// wrap midnight (e.g. 21 to 8).
func (q QuietHours) contains(t time.Time) bool {
	if q.StartHour == q.EndHour {
		return false
	}
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	hour := t.In(loc).Hour()
	if q.StartHour < q.EndHour {
		return hour >= q.StartHour && hour < q.EndHour
	}
	return hour >= q.StartHour || hour < q.EndHour
}

// Service sends patient-facing appointment messages. It implements the
// appointments notifier surface; failures are logged, never propagated,
// because a lost courtesy email must not fail the booking.
type Service struct {
	email    EmailSender
	patients patients.Repository
	quiet    QuietHours
	logger   *logging.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a notification service.
func NewService(email EmailSender, patientRepo patients.Repository, quiet QuietHours, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:    email,
		patients: patientRepo,
		quiet:    quiet,
		logger:   logger,
		now:      time.Now,
	}
}

// AppointmentConfirmed emails the patient their confirmed slot.
func (s *Service) AppointmentConfirmed(ctx context.Context, appt *appointments.Appointment) {
	patient, ok := s.recipient(ctx, appt)
	if !ok {
		return
	}

	when := appt.ScheduledAt.Format("Monday, January 2 at 3:04 PM")
	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.FirstName + " " + patient.LastName,
		Subject: "Your appointment is confirmed",
		Body: fmt.Sprintf(`Hello %s,

Your consultation is confirmed for %s.

Please arrive up to 30 minutes early so we can check you in. If you need
to change the date, reschedule at least 2 hours in advance.

See you soon.`, patient.FirstName, when),
	}
	s.send(ctx, msg, appt, "confirmation")
}

// AppointmentRescheduled emails the patient their replacement slot.
func (s *Service) AppointmentRescheduled(ctx context.Context, old, replacement *appointments.Appointment) {
	patient, ok := s.recipient(ctx, replacement)
	if !ok {
		return
	}

	oldWhen := old.ScheduledAt.Format("Monday, January 2 at 3:04 PM")
	newWhen := replacement.ScheduledAt.Format("Monday, January 2 at 3:04 PM")
	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.FirstName + " " + patient.LastName,
		Subject: "Your appointment was rescheduled",
		Body: fmt.Sprintf(`Hello %s,

Your consultation originally set for %s has been moved to %s.

If the new time does not work for you, please contact the clinic.`, patient.FirstName, oldWhen, newWhen),
	}
	s.send(ctx, msg, replacement, "reschedule")
}

// recipient resolves the patient and their email. Missing repo, unknown
// patient or no email address all silently skip the message.
func (s *Service) recipient(ctx context.Context, appt *appointments.Appointment) (*patients.Patient, bool) {
	if s.email == nil || s.patients == nil || appt == nil {
		return nil, false
	}
	patient, err := s.patients.GetByID(ctx, appt.PatientID.String())
	if err != nil {
		s.logger.Warn("notify: patient lookup failed", "error", err, "patient_id", appt.PatientID)
		return nil, false
	}
	if patient.Email == "" {
		s.logger.Debug("notify: patient has no email, skipping", "patient_id", patient.ID)
		return nil, false
	}
	return patient, true
}

func (s *Service) send(ctx context.Context, msg EmailMessage, appt *appointments.Appointment, kind string) {
	if s.quiet.contains(s.now()) {
		s.logger.Info("notify: suppressed during quiet hours",
			"kind", kind, "appointment_id", appt.ID, "to", msg.To)
		return
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: send failed",
			"kind", kind, "appointment_id", appt.ID, "error", err)
		return
	}
	s.logger.Info("notify: sent", "kind", kind, "appointment_id", appt.ID, "to", msg.To)
}

// Ensure interface compliance
var _ appointments.Notifier = (*Service)(nil)
