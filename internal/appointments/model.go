package appointments

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
)

// Visit reasons for a hernia/gallbladder surgical practice.
const (
	ReasonHernia      = "hernia"
	ReasonGallbladder = "vesicula"
	ReasonFollowUp    = "seguimiento"
	ReasonOther       = "otro"
)

// Appointment is a booked consultation slot.
type Appointment struct {
	ID           uuid.UUID        `json:"id"`
	PatientID    uuid.UUID        `json:"patient_id"`
	ScheduledAt  time.Time        `json:"scheduled_at"`
	DurationMins int              `json:"duration_mins"`
	Reason       string           `json:"reason"`
	Status       admission.Status `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Snapshot projects the row into the rule engine's input shape.
func (a *Appointment) Snapshot() admission.Appointment {
	snap := admission.Appointment{
		ScheduledAt: a.ScheduledAt,
		Status:      a.Status,
	}
	if !a.UpdatedAt.IsZero() {
		updated := a.UpdatedAt
		snap.LastUpdatedAt = &updated
	}
	return snap
}

// CreateAppointmentRequest is the request body for booking a slot.
type CreateAppointmentRequest struct {
	PatientID    string    `json:"patient_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	DurationMins int       `json:"duration_mins"`
	Reason       string    `json:"reason"`
	Notes        string    `json:"notes"`
}

// Validate checks the booking request.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if _, err := uuid.Parse(r.PatientID); err != nil {
		return ErrMissingPatient
	}
	if r.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	switch r.Reason {
	case ReasonHernia, ReasonGallbladder, ReasonFollowUp, ReasonOther:
	default:
		return ErrInvalidReason
	}
	return nil
}

// RescheduleRequest carries the replacement slot time.
type RescheduleRequest struct {
	NewTime       time.Time `json:"new_time"`
	AllowOverride bool      `json:"allow_override"`
}

// ActionRequest is the body for lifecycle action endpoints.
type ActionRequest struct {
	AllowOverride bool `json:"allow_override"`
}
