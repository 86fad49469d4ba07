package leads

import (
	"strings"
	"time"
)

// Stage is a lead's position in the consult funnel.
type Stage string

const (
	StageNew       Stage = "new"
	StageContacted Stage = "contacted"
	StageScheduled Stage = "scheduled"
	StageConverted Stage = "converted"
	StageLost      Stage = "lost"
)

// stageMoves lists the allowed funnel moves. Converted and lost are
// terminal.
var stageMoves = map[Stage][]Stage{
	StageNew:       {StageContacted, StageScheduled, StageLost},
	StageContacted: {StageScheduled, StageConverted, StageLost},
	StageScheduled: {StageConverted, StageLost},
}

// IsValid reports whether s is a known stage.
func (s Stage) IsValid() bool {
	switch s {
	case StageNew, StageContacted, StageScheduled, StageConverted, StageLost:
		return true
	}
	return false
}

// CanMoveTo reports whether the funnel allows moving from s to next.
func (s Stage) CanMoveTo(next Stage) bool {
	for _, allowed := range stageMoves[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Lead represents an inquiry about a surgical consultation, usually from
// the practice's web form or a phone referral.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Concern   string    `json:"concern"`
	Source    string    `json:"source"`
	Stage     Stage     `json:"stage"`
	PatientID string    `json:"patient_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Concern string `json:"concern"`
	Source  string `json:"source"`
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// ListLeadsFilter narrows and pages lead listings.
type ListLeadsFilter struct {
	Stage  Stage
	Limit  int
	Offset int
}
