// Package admission decides which lifecycle actions are currently permitted
// on an appointment, why, and which status each action moves to.
//
// The engine is pure and stateless: every function reads only its arguments
// and the immutable Config it was constructed with, so it is safe to call
// from any number of goroutines. Denials are ordinary return values, never
// errors; only malformed input (an unrecognized status or action) surfaces
// as an error.
package admission

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrUnknownStatus indicates a status outside the recognized set.
	ErrUnknownStatus = errors.New("unknown appointment status")
	// ErrUnknownAction indicates an action outside the recognized set.
	ErrUnknownAction = errors.New("unknown appointment action")
	// ErrMissingSchedule indicates an appointment without a scheduled time.
	ErrMissingSchedule = errors.New("appointment has no scheduled time")
)

// Appointment is the snapshot of the record the engine evaluates. The engine
// never loads or mutates appointments; callers pass the current row state.
type Appointment struct {
	ScheduledAt   time.Time
	Status        Status
	LastUpdatedAt *time.Time
}

// Context carries per-call evaluation parameters.
type Context struct {
	// AllowOverride lets privileged callers bypass time-window and
	// transition-table restrictions. It never bypasses state preconditions:
	// a COMPLETED appointment cannot be checked in, override or not.
	AllowOverride bool
	// UserRole is recorded for audit logging. It does not change rule
	// outcomes; role-scoped override policy is a deliberate follow-up.
	UserRole string
}

// Category classifies why an action was denied.
type Category string

const (
	CategoryStateMismatch     Category = "state-mismatch"
	CategoryTooEarly          Category = "too-early"
	CategoryTooLate           Category = "too-late"
	CategoryOutsideHours      Category = "outside-operating-hours"
	CategoryCooldownActive    Category = "cooldown-active"
	CategoryInvalidTransition Category = "invalid-transition"
)

// Decision is the outcome of evaluating one action against one appointment.
type Decision struct {
	Allowed  bool     `json:"allowed"`
	Category Category `json:"category,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	// Next is the status the action would transition to when allowed.
	Next Status `json:"next_status,omitempty"`
}

// Engine evaluates lifecycle rules against a fixed Config.
type Engine struct {
	cfg Config
}

// New builds an engine from cfg, filling unset fields with defaults.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalized()}
}

// Default returns an engine with the canonical clinic configuration.
func Default() *Engine {
	return New(DefaultConfig())
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Check is the loud entry point for persistence-path callers: it validates
// inputs before dispatching, so a malformed snapshot is surfaced as an error
// instead of a silent denial.
func (e *Engine) Check(action Action, appt Appointment, now time.Time, rctx *Context) (Decision, error) {
	if !action.IsValid() {
		return Decision{}, fmt.Errorf("admission: %w: %q", ErrUnknownAction, action)
	}
	if !appt.Status.IsValid() {
		return Decision{}, fmt.Errorf("admission: %w: %q", ErrUnknownStatus, appt.Status)
	}
	if appt.ScheduledAt.IsZero() {
		return Decision{}, fmt.Errorf("admission: %w", ErrMissingSchedule)
	}
	return e.evaluate(action, appt, now, rctx), nil
}

// evaluate dispatches to the per-action validator.
func (e *Engine) evaluate(action Action, appt Appointment, now time.Time, rctx *Context) Decision {
	switch action {
	case ActionCheckIn:
		return e.CanCheckIn(appt, now, rctx)
	case ActionStartConsultation:
		return e.CanStartConsultation(appt, now, rctx)
	case ActionComplete:
		return e.CanComplete(appt, now, rctx)
	case ActionCancel:
		return e.CanCancel(appt, now, rctx)
	case ActionNoShow:
		return e.CanMarkNoShow(appt, now, rctx)
	case ActionReschedule:
		return e.CanReschedule(appt, now, rctx)
	case ActionViewHistory:
		return e.CanViewHistory(appt, now, rctx)
	}
	return deny(CategoryStateMismatch, "unrecognized action %q", action)
}

func allow(next Status) Decision {
	return Decision{Allowed: true, Next: next}
}

func deny(cat Category, format string, args ...any) Decision {
	return Decision{Category: cat, Reason: fmt.Sprintf(format, args...)}
}

// resolveNow defaults a zero instant to the wall clock. Tests always inject.
func resolveNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}

// wholeMinutes rounds a duration up to whole minutes for user-facing
// countdown messages; "available in 1 minute" rather than "in 0 minutes".
func wholeMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}

func minutesWord(n int) string {
	if n == 1 {
		return "minute"
	}
	return "minutes"
}
