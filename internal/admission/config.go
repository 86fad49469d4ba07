package admission

import "time"

// Config holds the operational windows the engine evaluates against.
// It is immutable once an Engine is constructed; tests and per-clinic
// settings inject their own values instead of mutating shared state.
type Config struct {
	// Location is the clinic-local timezone. All hour and weekday checks
	// happen in this location, never in UTC.
	Location *time.Location

	// Clinic operating hours, local clock hours [start, end).
	WorkStartHour int
	WorkEndHour   int

	// Lunch break, local clock hours [start, end). Starting a consultation
	// is blocked during lunch; check-in is not.
	LunchStartHour int
	LunchEndHour   int

	// WorkDays are the weekdays the clinic operates.
	WorkDays []time.Weekday

	// CheckInEarly/CheckInLate bound the check-in window around the
	// scheduled time: [scheduledAt-CheckInEarly, scheduledAt+CheckInLate].
	CheckInEarly time.Duration
	CheckInLate  time.Duration

	// CompletionWindow is how long after the scheduled time an in-progress
	// consultation may still be marked complete.
	CompletionWindow time.Duration

	// NoShowGrace is how long after the scheduled time staff must wait
	// before marking a patient as a no-show.
	NoShowGrace time.Duration

	// RescheduleLead is the minimum lead time before the scheduled moment
	// for rescheduling an upcoming appointment.
	RescheduleLead time.Duration

	// RapidChangeCooldown rejects a second status change arriving within
	// this window of the previous one. Advisory only; the persistence layer
	// owns the authoritative concurrency guard.
	RapidChangeCooldown time.Duration
}

// DefaultTimezone is the clinic-local timezone used when none is configured.
const DefaultTimezone = "America/Mexico_City"

// DefaultConfig returns the canonical clinic windows: 08:00-20:00 Monday
// through Saturday, lunch 13:00-14:00, check-in [-30m, +15m], 120m completion
// deadline, 15m no-show grace, 2h reschedule lead time, 2m cooldown.
func DefaultConfig() Config {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Config{
		Location:       loc,
		WorkStartHour:  8,
		WorkEndHour:    20,
		LunchStartHour: 13,
		LunchEndHour:   14,
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		CheckInEarly:        30 * time.Minute,
		CheckInLate:         15 * time.Minute,
		CompletionWindow:    120 * time.Minute,
		NoShowGrace:         15 * time.Minute,
		RescheduleLead:      2 * time.Hour,
		RapidChangeCooldown: 2 * time.Minute,
	}
}

// normalized fills the gaps a partially-specified config leaves, so an
// Engine never has to nil-check its location or guess at zero windows.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Location == nil {
		c.Location = def.Location
	}
	if c.WorkEndHour == 0 {
		c.WorkStartHour = def.WorkStartHour
		c.WorkEndHour = def.WorkEndHour
	}
	if c.LunchEndHour == 0 {
		c.LunchStartHour = def.LunchStartHour
		c.LunchEndHour = def.LunchEndHour
	}
	if len(c.WorkDays) == 0 {
		c.WorkDays = def.WorkDays
	}
	if c.CheckInEarly == 0 {
		c.CheckInEarly = def.CheckInEarly
	}
	if c.CheckInLate == 0 {
		c.CheckInLate = def.CheckInLate
	}
	if c.CompletionWindow == 0 {
		c.CompletionWindow = def.CompletionWindow
	}
	if c.NoShowGrace == 0 {
		c.NoShowGrace = def.NoShowGrace
	}
	if c.RescheduleLead == 0 {
		c.RescheduleLead = def.RescheduleLead
	}
	if c.RapidChangeCooldown == 0 {
		c.RapidChangeCooldown = def.RapidChangeCooldown
	}
	return c
}
