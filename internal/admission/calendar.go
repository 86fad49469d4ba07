package admission

import "time"

// localTime converts t to the clinic-local clock. Comparing raw UTC hours
// against local business-hour constants shifts the day boundary, which is
// exactly the bug class this indirection exists to prevent.
func (e *Engine) localTime(t time.Time) time.Time {
	return t.In(e.cfg.Location)
}

// IsWorkDay reports whether t falls on a configured clinic work day,
// using the clinic-local calendar.
func (e *Engine) IsWorkDay(t time.Time) bool {
	weekday := e.localTime(t).Weekday()
	for _, d := range e.cfg.WorkDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// IsWithinWorkHours reports whether t is inside clinic operating hours:
// a work day with local hour in [WorkStartHour, WorkEndHour).
func (e *Engine) IsWithinWorkHours(t time.Time) bool {
	if !e.IsWorkDay(t) {
		return false
	}
	hour := e.localTime(t).Hour()
	return hour >= e.cfg.WorkStartHour && hour < e.cfg.WorkEndHour
}

// IsLunchTime reports whether t's local hour is inside the lunch break
// [LunchStartHour, LunchEndHour).
func (e *Engine) IsLunchTime(t time.Time) bool {
	hour := e.localTime(t).Hour()
	return hour >= e.cfg.LunchStartHour && hour < e.cfg.LunchEndHour
}
