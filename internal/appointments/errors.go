package appointments

import (
	"errors"
	"fmt"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrStaleAppointment    = errors.New("appointment was modified by another request")
	ErrMissingPatient      = errors.New("patient_id is required")
	ErrMissingSchedule     = errors.New("scheduled_at is required")
	ErrInvalidReason       = errors.New("reason must be hernia, vesicula, seguimiento or otro")
)

// DeniedError carries a rule-engine denial across the service boundary so
// handlers can surface the category and reason to clinic staff.
type DeniedError struct {
	Action   admission.Action
	Decision admission.Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("appointments: %s denied (%s): %s",
		e.Action, e.Decision.Category, e.Decision.Reason)
}

// AsDenied unwraps a DeniedError if err carries one.
func AsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
