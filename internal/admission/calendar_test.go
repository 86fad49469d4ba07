package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkHours_UseClinicLocalClock(t *testing.T) {
	// Clinic at UTC-6: a timestamp that is Tuesday 01:00 UTC is still
	// Monday 19:00 at the clinic, inside operating hours.
	cfg := DefaultConfig()
	cfg.Location = time.FixedZone("clinic", -6*3600)
	e := New(cfg)

	lateMondayUTC, err := time.Parse(time.RFC3339, "2024-03-05T01:00:00Z")
	require.NoError(t, err)

	assert.True(t, e.IsWithinWorkHours(lateMondayUTC))
	assert.True(t, e.IsWorkDay(lateMondayUTC))
}

func TestWorkHours_Boundaries(t *testing.T) {
	e := testEngine()

	cases := []struct {
		clock string
		want  bool
	}{
		{"07:59", false},
		{"08:00", true},
		{"19:59", true},
		{"20:00", false},
	}
	for _, tc := range cases {
		ts := mondayAt(t, tc.clock)
		if got := e.IsWithinWorkHours(ts); got != tc.want {
			t.Errorf("IsWithinWorkHours(%s) = %v, want %v", tc.clock, got, tc.want)
		}
	}
}

func TestWorkDays_SundayClosed(t *testing.T) {
	e := testEngine()

	sundayNoon, err := time.Parse(time.RFC3339, "2024-03-03T12:00:00Z")
	require.NoError(t, err)
	assert.False(t, e.IsWorkDay(sundayNoon))
	assert.False(t, e.IsWithinWorkHours(sundayNoon))

	saturdayNoon, err := time.Parse(time.RFC3339, "2024-03-02T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, e.IsWorkDay(saturdayNoon))
}

func TestLunchTime(t *testing.T) {
	e := testEngine()

	assert.False(t, e.IsLunchTime(mondayAt(t, "12:59")))
	assert.True(t, e.IsLunchTime(mondayAt(t, "13:00")))
	assert.True(t, e.IsLunchTime(mondayAt(t, "13:59")))
	assert.False(t, e.IsLunchTime(mondayAt(t, "14:00")))
}

func TestConfig_NormalizedFillsDefaults(t *testing.T) {
	e := New(Config{WorkStartHour: 9, WorkEndHour: 17})
	cfg := e.Config()

	assert.Equal(t, 9, cfg.WorkStartHour)
	assert.Equal(t, 17, cfg.WorkEndHour)
	assert.NotNil(t, cfg.Location)
	assert.Equal(t, 30*time.Minute, cfg.CheckInEarly)
	assert.Equal(t, 2*time.Hour, cfg.RescheduleLead)
	assert.NotEmpty(t, cfg.WorkDays)
}
