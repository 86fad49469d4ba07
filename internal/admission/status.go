package admission

import "fmt"

// Status is the lifecycle state of an appointment.
//
// Happy path:
//
//	SCHEDULED → CONFIRMED → CHECKED_IN → IN_CONSULTATION → COMPLETED
//
// with side exits to CANCELLED, NO_SHOW and RESCHEDULED.
type Status string

const (
	StatusScheduled      Status = "SCHEDULED"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCheckedIn      Status = "CHECKED_IN"
	StatusInConsultation Status = "IN_CONSULTATION"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
	StatusNoShow         Status = "NO_SHOW"
	StatusRescheduled    Status = "RESCHEDULED"
)

// AllStatuses lists every recognized status, in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusScheduled,
		StatusConfirmed,
		StatusCheckedIn,
		StatusInConsultation,
		StatusCompleted,
		StatusCancelled,
		StatusNoShow,
		StatusRescheduled,
	}
}

// IsValid reports whether s is one of the recognized statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCheckedIn, StatusInConsultation,
		StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("admission: %w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Action is a lifecycle operation a caller may attempt on an appointment.
type Action string

const (
	ActionCheckIn           Action = "check_in"
	ActionStartConsultation Action = "start_consultation"
	ActionComplete          Action = "complete"
	ActionCancel            Action = "cancel"
	ActionNoShow            Action = "no_show"
	ActionReschedule        Action = "reschedule"
	ActionViewHistory       Action = "view_history"
)

// AllActions lists every action in evaluation order.
func AllActions() []Action {
	return []Action{
		ActionCheckIn,
		ActionStartConsultation,
		ActionComplete,
		ActionCancel,
		ActionNoShow,
		ActionReschedule,
		ActionViewHistory,
	}
}

// IsValid reports whether a is a recognized action.
func (a Action) IsValid() bool {
	switch a {
	case ActionCheckIn, ActionStartConsultation, ActionComplete, ActionCancel,
		ActionNoShow, ActionReschedule, ActionViewHistory:
		return true
	}
	return false
}

// ParseAction converts a raw string into an Action, rejecting unknown values.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", fmt.Errorf("admission: %w: %q", ErrUnknownAction, s)
	}
	return a, nil
}
