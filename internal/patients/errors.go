package patients

import "errors"

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrInvalidName      = errors.New("first and last name are required")
	ErrMissingContact   = errors.New("either email or phone is required")
	ErrInvalidDiagnosis = errors.New("diagnosis must be hernia, vesicula or otro")
)
