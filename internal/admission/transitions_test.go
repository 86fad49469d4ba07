package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_TableCoverage(t *testing.T) {
	e := testEngine()

	expected := map[Status][]Status{
		StatusScheduled:      {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow, StatusRescheduled},
		StatusConfirmed:      {StatusCheckedIn, StatusCancelled, StatusNoShow, StatusRescheduled},
		StatusCheckedIn:      {StatusInConsultation, StatusCompleted, StatusCancelled},
		StatusInConsultation: {StatusCompleted, StatusCancelled},
		StatusCompleted:      {StatusRescheduled},
		StatusCancelled:      {StatusRescheduled},
		StatusNoShow:         {StatusRescheduled},
		StatusRescheduled:    {StatusScheduled, StatusConfirmed},
	}

	for from, targets := range expected {
		allowed := make(map[Status]bool, len(targets))
		for _, to := range targets {
			allowed[to] = true
			d := e.CanTransition(from, to, nil)
			require.True(t, d.Allowed, "%s -> %s should be legal", from, to)
			require.Equal(t, to, d.Next)
		}
		// Every pair outside the table is rejected without override and
		// accepted with it.
		for _, to := range AllStatuses() {
			if allowed[to] {
				continue
			}
			d := e.CanTransition(from, to, nil)
			require.False(t, d.Allowed, "%s -> %s should be illegal", from, to)
			require.Equal(t, CategoryInvalidTransition, d.Category)
			assert.Contains(t, d.Reason, string(from))
			assert.Contains(t, d.Reason, string(to))

			d = e.CanTransition(from, to, &Context{AllowOverride: true})
			require.True(t, d.Allowed, "override should bypass %s -> %s", from, to)
		}
	}
}

func TestCanTransition_UnknownStatusesRejectedEvenWithOverride(t *testing.T) {
	e := testEngine()

	d := e.CanTransition(Status("PENDIENTE"), StatusConfirmed, &Context{AllowOverride: true})
	require.False(t, d.Allowed)
	assert.Equal(t, CategoryStateMismatch, d.Category)

	d = e.CanTransition(StatusScheduled, Status("ARCHIVED"), &Context{AllowOverride: true})
	require.False(t, d.Allowed)
	assert.Equal(t, CategoryStateMismatch, d.Category)
}

func TestValidatorNextStatuses_AgreeWithTable(t *testing.T) {
	e := testEngine()
	now := mondayAt(t, "09:45")

	// Every transition a validator would perform must also be legal per
	// the table; the table is the defense-in-depth guard at the
	// persistence boundary.
	appt := scheduledMonday10(t, StatusScheduled)
	for _, d := range []Decision{
		e.CanCheckIn(appt, now, nil),
		e.CanCancel(appt, now, nil),
	} {
		require.True(t, d.Allowed, "reason: %s", d.Reason)
		require.True(t, e.CanTransition(appt.Status, d.Next, nil).Allowed,
			"%s -> %s missing from table", appt.Status, d.Next)
	}

	checkedIn := scheduledMonday10(t, StatusCheckedIn)
	d := e.CanStartConsultation(checkedIn, mondayAt(t, "10:05"), nil)
	require.True(t, d.Allowed)
	require.True(t, e.CanTransition(checkedIn.Status, d.Next, nil).Allowed)

	inConsult := scheduledMonday10(t, StatusInConsultation)
	d = e.CanComplete(inConsult, mondayAt(t, "10:40"), nil)
	require.True(t, d.Allowed)
	require.True(t, e.CanTransition(inConsult.Status, d.Next, nil).Allowed)
}
