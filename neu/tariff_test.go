package neu_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coworkhub/neu-engine/neu"
)

// 2025-03-12 is a Wednesday with no holiday.
func weekday(hour, min int) time.Time {
	return time.Date(2025, time.March, 12, hour, min, 0, 0, time.UTC)
}

func TestShiftPoints_StandardHour(t *testing.T) {
	// GIVEN: A weekday shift fully inside 09:00-18:30
	// THEN: One hour at the standard rate

	b := neu.ShiftPoints(weekday(10, 0), weekday(11, 0))

	assert.Equal(t, "1", b.Hours.Value.String())
	assert.Equal(t, "2.5", b.Points.Value.String())
	assert.Equal(t, "2.5", b.Standard.Points.Value.String())
	assert.True(t, b.Evening.Points.IsZero())
	assert.True(t, b.Extra.Points.IsZero())
}

func TestShiftPoints_SplitsAcrossEveningBoundary(t *testing.T) {
	// GIVEN: A weekday 18:00-19:00 shift crossing the 18:30 boundary
	// THEN: 30 standard minutes (1.25) plus 30 evening minutes (2) = 3.25

	b := neu.ShiftPoints(weekday(18, 0), weekday(19, 0))

	assert.Equal(t, "3.25", b.Points.Value.String())
	assert.Equal(t, "0.5", b.Standard.Hours.Value.String())
	assert.Equal(t, "1.25", b.Standard.Points.Value.String())
	assert.Equal(t, "0.5", b.Evening.Hours.Value.String())
	assert.Equal(t, "2", b.Evening.Points.Value.String())
}

func TestShiftPoints_LateNightIsExtra(t *testing.T) {
	// 20:30 onwards on a weekday is the extra tier.
	b := neu.ShiftPoints(weekday(21, 0), weekday(22, 0))

	assert.Equal(t, "6", b.Points.Value.String())
	assert.Equal(t, "6", b.Extra.Points.Value.String())
}

func TestShiftPoints_EarlyMorningIsExtra(t *testing.T) {
	// Before 09:00 on a weekday is the extra tier.
	b := neu.ShiftPoints(weekday(7, 0), weekday(8, 0))

	assert.Equal(t, "6", b.Points.Value.String())
}

func TestShiftPoints_WeekendIsFlatExtra(t *testing.T) {
	// GIVEN: A Saturday shift during what would be standard hours
	// THEN: The whole shift earns the extra rate

	sat := time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)
	b := neu.ShiftPoints(sat, sat.Add(2*time.Hour))

	assert.Equal(t, "2", b.Hours.Value.String())
	assert.Equal(t, "12", b.Points.Value.String())
	assert.True(t, b.Standard.Points.IsZero())
}

func TestShiftPoints_HolidayIsFlatExtra(t *testing.T) {
	// Easter Monday 2025 falls on a weekday but prices as extra.
	em := time.Date(2025, time.April, 21, 10, 0, 0, 0, time.UTC)
	b := neu.ShiftPoints(em, em.Add(time.Hour))

	assert.Equal(t, "6", b.Points.Value.String())
}

func TestShiftPoints_MalformedIntervalYieldsZero(t *testing.T) {
	// GIVEN: end <= start
	// THEN: A zeroed breakdown, not an error

	start := weekday(10, 0)

	b := neu.ShiftPoints(start, start)
	assert.True(t, b.Points.IsZero())
	assert.True(t, b.Hours.IsZero())

	b = neu.ShiftPoints(start, start.Add(-time.Hour))
	assert.True(t, b.Points.IsZero())
}

func TestShiftPoints_PartialMinutesRound(t *testing.T) {
	// 10 standard minutes: 10/60 h = 0.17 rounded, 10/60*2.5 = 0.42 rounded.
	b := neu.ShiftPoints(weekday(10, 0), weekday(10, 10))

	assert.Equal(t, "0.17", b.Hours.Value.String())
	assert.Equal(t, "0.42", b.Points.Value.String())
}

func TestShiftDayType(t *testing.T) {
	assert.Equal(t, neu.DayWeekdayMorning, neu.ShiftDayType(weekday(10, 0)))
	assert.Equal(t, neu.DayWeekdayEvening, neu.ShiftDayType(weekday(18, 30)))
	assert.Equal(t, neu.DayWeekend, neu.ShiftDayType(time.Date(2025, time.March, 16, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, neu.DayHoliday, neu.ShiftDayType(time.Date(2025, time.December, 25, 10, 0, 0, 0, time.UTC)))
}
