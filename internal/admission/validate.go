package admission

import (
	"strings"
	"time"
)

// Every validator follows the same shape: an ordered list of independently
// checked rules, short-circuiting on the first failure. Rule order is part
// of the contract: the cooldown guard runs first so a double-click is
// reported as such instead of as a window problem, and state preconditions
// run before any time-window rule so override can never resurrect a
// terminal appointment.

// guard runs the checks shared by every mutating action: input sanity,
// the rapid-change cooldown, and the status precondition.
func (e *Engine) guard(appt Appointment, now time.Time, rctx *Context, allowed ...Status) (Decision, bool) {
	if !appt.Status.IsValid() {
		// Fail closed on unrecognized input.
		return deny(CategoryStateMismatch, "unrecognized appointment status %q", string(appt.Status)), false
	}

	if d := e.checkCooldown(appt, now, rctx); !d.Allowed {
		return d, false
	}

	if !statusIn(appt.Status, allowed) {
		return deny(CategoryStateMismatch,
			"appointment is %s; this action requires %s",
			appt.Status, statusList(allowed)), false
	}
	return Decision{Allowed: true}, true
}

// checkCooldown rejects a status change arriving within the cooldown window
// of the previous one. It guards against UI double-submission, nothing more;
// true mutual exclusion lives at the persistence boundary.
func (e *Engine) checkCooldown(appt Appointment, now time.Time, rctx *Context) Decision {
	if rctx != nil && rctx.AllowOverride {
		return Decision{Allowed: true}
	}
	if appt.LastUpdatedAt == nil {
		return Decision{Allowed: true}
	}
	elapsed := now.Sub(*appt.LastUpdatedAt)
	if elapsed >= 0 && elapsed < e.cfg.RapidChangeCooldown {
		wait := wholeMinutes(e.cfg.RapidChangeCooldown - elapsed)
		return deny(CategoryCooldownActive,
			"appointment was just updated; wait %d %s before another change",
			wait, minutesWord(wait))
	}
	return Decision{Allowed: true}
}

func (e *Engine) overridden(rctx *Context) bool {
	return rctx != nil && rctx.AllowOverride
}

// CanCheckIn permits marking the patient present: SCHEDULED or CONFIRMED,
// within [scheduledAt-CheckInEarly, scheduledAt+CheckInLate], during
// operating hours.
func (e *Engine) CanCheckIn(appt Appointment, now time.Time, rctx *Context) Decision {
	now = resolveNow(now)
	if d, ok := e.guard(appt, now, rctx, StatusScheduled, StatusConfirmed); !ok {
		return d
	}
	if !e.overridden(rctx) {
		opens := appt.ScheduledAt.Add(-e.cfg.CheckInEarly)
		closes := appt.ScheduledAt.Add(e.cfg.CheckInLate)
		if now.Before(opens) {
			wait := wholeMinutes(opens.Sub(now))
			return deny(CategoryTooEarly,
				"check-in opens in %d %s (%d minutes before the appointment)",
				wait, minutesWord(wait), wholeMinutes(e.cfg.CheckInEarly))
		}
		if now.After(closes) {
			late := wholeMinutes(now.Sub(closes))
			return deny(CategoryTooLate,
				"check-in window closed %d %s ago; mark as no-show or reschedule",
				late, minutesWord(late))
		}
		if !e.IsWithinWorkHours(now) {
			return deny(CategoryOutsideHours,
				"clinic is closed; check-in is only available %02d:00-%02d:00 on work days",
				e.cfg.WorkStartHour, e.cfg.WorkEndHour)
		}
	}
	return allow(StatusCheckedIn)
}

// CanStartConsultation permits moving a checked-in patient into
// consultation: during operating hours and outside the lunch break.
func (e *Engine) CanStartConsultation(appt Appointment, now time.Time, rctx *Context) Decision {
	now = resolveNow(now)
	if d, ok := e.guard(appt, now, rctx, StatusCheckedIn); !ok {
		return d
	}
	if !e.overridden(rctx) {
		if !e.IsWithinWorkHours(now) {
			return deny(CategoryOutsideHours,
				"consultations only start during clinic hours (%02d:00-%02d:00 on work days)",
				e.cfg.WorkStartHour, e.cfg.WorkEndHour)
		}
		if e.IsLunchTime(now) {
			return deny(CategoryOutsideHours,
				"consultations do not start during the lunch break (%02d:00-%02d:00)",
				e.cfg.LunchStartHour, e.cfg.LunchEndHour)
		}
	}
	return allow(StatusInConsultation)
}

// CanComplete permits finishing an in-progress consultation, up to the
// completion deadline after the scheduled time.
func (e *Engine) CanComplete(appt Appointment, now time.Time, rctx *Context) Decision {
	now = resolveNow(now)
	if d, ok := e.guard(appt, now, rctx, StatusInConsultation); !ok {
		return d
	}
	if !e.overridden(rctx) {
		deadline := appt.ScheduledAt.Add(e.cfg.CompletionWindow)
		if now.After(deadline) {
			over := wholeMinutes(now.Sub(deadline))
			return deny(CategoryTooLate,
				"completion deadline passed %d %s ago (%d minutes after the scheduled time)",
				over, minutesWord(over), wholeMinutes(e.cfg.CompletionWindow))
		}
	}
	return allow(StatusCompleted)
}

// CanCancel permits cancelling an upcoming SCHEDULED or CONFIRMED
// appointment whose scheduled moment has not yet passed.
func (e *Engine) CanCancel(appt Appointment, now time.Time, rctx *Context) Decision {
	now = resolveNow(now)
	if d, ok := e.guard(appt, now, rctx, StatusScheduled, StatusConfirmed); !ok {
		return d
	}
	if !e.overridden(rctx) && now.After(appt.ScheduledAt) {
		return deny(CategoryTooLate,
			"the appointment time has already passed; mark as no-show instead")
	}
	return allow(StatusCancelled)
}

// CanMarkNoShow permits flagging a patient who never arrived, once the
// grace period after the scheduled time has elapsed.
func (e *Engine) CanMarkNoShow(appt Appointment, now time.Time, rctx *Context) Decision {
	now = resolveNow(now)
	if d, ok := e.guard(appt, now, rctx, StatusScheduled, StatusConfirmed); !ok {
		return d
	}
	if !e.overridden(rctx) {
		threshold := appt.ScheduledAt.Add(e.cfg.NoShowGrace)
		if now.Before(threshold) {
			wait := wholeMinutes(threshold.Sub(now))
			return deny(CategoryTooEarly,
				"no-show can be marked in %d %s (%d-minute grace period after the scheduled time)",
				wait, minutesWord(wait), wholeMinutes(e.cfg.NoShowGrace))
		}
	}
	return allow(StatusNoShow)
}

// CanReschedule permits booking a replacement slot. Past-state appointments
// (CANCELLED, NO_SHOW, COMPLETED) may always be rescheduled to create a
// follow-up; upcoming ones need the configured lead time before the
// scheduled moment.
func (e *Engine) CanReschedule(appt Appointment, now time.Time, rctx *Context) Decision {
	now = resolveNow(now)
	d, ok := e.guard(appt, now, rctx,
		StatusScheduled, StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted)
	if !ok {
		return d
	}
	upcoming := appt.Status == StatusScheduled || appt.Status == StatusConfirmed
	if upcoming && !e.overridden(rctx) {
		cutoff := appt.ScheduledAt.Add(-e.cfg.RescheduleLead)
		if now.After(cutoff) {
			return deny(CategoryTooLate,
				"rescheduling needs at least %d hours of lead time; contact the clinic directly",
				int(e.cfg.RescheduleLead.Hours()))
		}
	}
	return allow(StatusRescheduled)
}

// CanViewHistory is always permitted; it is read-only and skips the
// cooldown on purpose.
func (e *Engine) CanViewHistory(Appointment, time.Time, *Context) Decision {
	return Decision{Allowed: true}
}

func statusIn(s Status, set []Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

func statusList(set []Status) string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = string(s)
	}
	return strings.Join(parts, " or ")
}
