package admission

// transitions maps each status to the statuses it may legally move to,
// independent of timing. It backs the secondary guard at the persistence
// boundary: even if an action validator is bypassed, an illegal transition
// is still caught here.
var transitions = map[Status][]Status{
	StatusScheduled:      {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed:      {StatusCheckedIn, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusCheckedIn:      {StatusInConsultation, StatusCompleted, StatusCancelled},
	StatusInConsultation: {StatusCompleted, StatusCancelled},
	StatusCompleted:      {StatusRescheduled}, // only to create a follow-up
	StatusCancelled:      {StatusRescheduled},
	StatusNoShow:         {StatusRescheduled},
	StatusRescheduled:    {StatusScheduled, StatusConfirmed},
}

// CanTransition reports whether moving from one status to another is legal
// per the transition table. Override bypasses the table but both statuses
// must still be recognized values.
func (e *Engine) CanTransition(from, to Status, rctx *Context) Decision {
	if !from.IsValid() {
		return deny(CategoryStateMismatch, "unrecognized current status %q", string(from))
	}
	if !to.IsValid() {
		return deny(CategoryStateMismatch, "unrecognized target status %q", string(to))
	}
	if e.overridden(rctx) {
		return Decision{Allowed: true, Next: to}
	}
	for _, candidate := range transitions[from] {
		if candidate == to {
			return Decision{Allowed: true, Next: to}
		}
	}
	return deny(CategoryInvalidTransition,
		"appointments cannot move from %s to %s", from, to)
}
