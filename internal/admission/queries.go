package admission

import "time"

// ActionAvailability pairs an action with its current decision.
type ActionAvailability struct {
	Action   Action   `json:"action"`
	Decision Decision `json:"decision"`
}

// AvailableActions evaluates every action against the appointment and
// returns the full projection, in a fixed order, for UI control gating.
// It is a pure projection: no caching, no mutation.
func (e *Engine) AvailableActions(appt Appointment, now time.Time, rctx *Context) []ActionAvailability {
	now = resolveNow(now)
	out := make([]ActionAvailability, 0, len(AllActions()))
	for _, action := range AllActions() {
		out = append(out, ActionAvailability{
			Action:   action,
			Decision: e.evaluate(action, appt, now, rctx),
		})
	}
	return out
}

// suggestionOrder encodes the happy-path progression. Terminal and
// destructive actions (cancel, no-show, reschedule) are never suggested
// even when technically valid.
var suggestionOrder = []Action{
	ActionCheckIn,
	ActionStartConsultation,
	ActionComplete,
}

// SuggestNextAction returns the first currently-valid happy-path action,
// or false when none applies.
func (e *Engine) SuggestNextAction(appt Appointment, now time.Time, rctx *Context) (Action, bool) {
	now = resolveNow(now)
	for _, action := range suggestionOrder {
		if e.evaluate(action, appt, now, rctx).Allowed {
			return action, true
		}
	}
	return "", false
}

// Severity grades an urgency flag for dashboard display.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Urgency describes an operationally risky appointment.
type Urgency struct {
	Severity       Severity `json:"severity"`
	Reason         string   `json:"reason"`
	ElapsedMinutes int      `json:"elapsed_minutes"`
}

const (
	urgencyMediumMinutes = 30
	urgencyHighMinutes   = 60
)

// NeedsUrgentAttention flags situations the front desk should look at: a
// checked-in patient waiting too long, or a scheduled appointment well past
// its time with nobody checked in. Advisory output only; it gates nothing.
func (e *Engine) NeedsUrgentAttention(appt Appointment, now time.Time) (Urgency, bool) {
	now = resolveNow(now)

	switch appt.Status {
	case StatusCheckedIn:
		// Waiting time counts from check-in when we know it, otherwise
		// from the scheduled moment.
		since := appt.ScheduledAt
		if appt.LastUpdatedAt != nil && appt.LastUpdatedAt.After(since) {
			since = *appt.LastUpdatedAt
		}
		waited := wholeMinutes(now.Sub(since))
		if waited > urgencyMediumMinutes {
			return Urgency{
				Severity:       severityForMinutes(waited),
				Reason:         "patient has been waiting past the expected start",
				ElapsedMinutes: waited,
			}, true
		}
	case StatusScheduled, StatusConfirmed:
		overdue := wholeMinutes(now.Sub(appt.ScheduledAt))
		if overdue > urgencyMediumMinutes {
			return Urgency{
				Severity:       severityForMinutes(overdue),
				Reason:         "appointment is past its scheduled time with no check-in",
				ElapsedMinutes: overdue,
			}, true
		}
	case StatusInConsultation:
		deadline := appt.ScheduledAt.Add(e.cfg.CompletionWindow)
		if now.After(deadline) {
			over := wholeMinutes(now.Sub(deadline))
			return Urgency{
				Severity:       SeverityLow,
				Reason:         "consultation is running past its completion deadline",
				ElapsedMinutes: over,
			}, true
		}
	}
	return Urgency{}, false
}

func severityForMinutes(elapsed int) Severity {
	if elapsed > urgencyHighMinutes {
		return SeverityHigh
	}
	return SeverityMedium
}

// Countdown reports whether a time-gated action is available now and, when
// it is not yet open, how long remains. It backs live countdown UI.
type Countdown struct {
	Available        bool `json:"available"`
	RemainingMinutes int  `json:"remaining_minutes,omitempty"`
}

// TimeUntilAction computes the countdown for actions gated by a future
// threshold (check-in opening, no-show grace). For every other action it
// simply reports current availability.
func (e *Engine) TimeUntilAction(appt Appointment, action Action, now time.Time) Countdown {
	now = resolveNow(now)
	d := e.evaluate(action, appt, now, nil)
	if d.Allowed {
		return Countdown{Available: true}
	}
	if d.Category != CategoryTooEarly {
		return Countdown{}
	}

	var opens time.Time
	switch action {
	case ActionCheckIn:
		opens = appt.ScheduledAt.Add(-e.cfg.CheckInEarly)
	case ActionNoShow:
		opens = appt.ScheduledAt.Add(e.cfg.NoShowGrace)
	default:
		return Countdown{}
	}
	if !now.Before(opens) {
		return Countdown{}
	}
	return Countdown{RemainingMinutes: wholeMinutes(opens.Sub(now))}
}
