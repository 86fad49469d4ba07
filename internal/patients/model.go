package patients

import (
	"strings"
	"time"
)

// Presumptive diagnoses tracked by the practice.
const (
	DiagnosisHernia      = "hernia"
	DiagnosisGallbladder = "vesicula"
	DiagnosisOther       = "otro"
)

// Patient is one person in the practice's registry.
type Patient struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Diagnosis string    `json:"diagnosis"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePatientRequest is the request body for registering a patient.
type CreatePatientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
}

// Validate validates the registration request.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	switch r.Diagnosis {
	case DiagnosisHernia, DiagnosisGallbladder, DiagnosisOther:
	default:
		return ErrInvalidDiagnosis
	}
	return nil
}

// ListFilter narrows and pages patient listings.
type ListFilter struct {
	Query     string
	Diagnosis string
	Limit     int
	Offset    int
}
