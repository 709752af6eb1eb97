package neu_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coworkhub/neu-engine/neu"
)

// =============================================================================
// ASSOCIATIVE YEAR TESTS
// =============================================================================

func TestAssociativeYear_OctoberStartsNewYear(t *testing.T) {
	// GIVEN: October 1st
	// THEN: It belongs to the year starting that same October

	ref := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
	year := neu.AssociativeYear(ref)

	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), year.Start)
	assert.Equal(t, time.Date(2025, time.September, 30, 23, 59, 59, 0, time.UTC), year.End)
}

func TestAssociativeYear_SeptemberBelongsToPreviousStart(t *testing.T) {
	// GIVEN: September 30th, the last day of a year
	// THEN: It belongs to the year that started the previous October

	ref := time.Date(2024, time.September, 30, 23, 59, 59, 0, time.UTC)
	year := neu.AssociativeYear(ref)

	assert.Equal(t, 2023, year.Start.Year())
	assert.Equal(t, time.October, year.Start.Month())
	assert.Equal(t, 2024, year.End.Year())
}

func TestAssociativeYear_ContainsItsBoundaries(t *testing.T) {
	year := neu.AssociativeYear(time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC))

	assert.True(t, year.Contains(year.Start))
	assert.True(t, year.Contains(year.End))
	assert.False(t, year.Contains(year.Start.Add(-time.Second)))
	assert.False(t, year.Contains(year.End.Add(time.Second)))
}

// =============================================================================
// EXPIRY DATE TESTS
// =============================================================================

func TestExpiryDate_CrossesTheOctoberBoundary(t *testing.T) {
	// GIVEN: Two earnings one day apart, straddling October 1st
	// THEN: They land in different associative years and expire a year apart

	sep30 := time.Date(2024, time.September, 30, 10, 0, 0, 0, time.UTC)
	oct1 := time.Date(2024, time.October, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC), neu.ExpiryDate(sep30))
	assert.Equal(t, time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC), neu.ExpiryDate(oct1))
}

func TestExpiryDate_MidYearEarning(t *testing.T) {
	// An earning in March 2025 sits in the Oct-2024 year and expires end of 2025.
	earned := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC), neu.ExpiryDate(earned))
}

// =============================================================================
// HOLIDAY TESTS
// =============================================================================

func TestIsHoliday_FixedAndEasterMonday(t *testing.T) {
	assert.True(t, neu.IsHoliday(time.Date(2025, time.December, 25, 10, 0, 0, 0, time.UTC)), "Natale")
	assert.True(t, neu.IsHoliday(time.Date(2025, time.April, 25, 10, 0, 0, 0, time.UTC)), "Liberazione")
	assert.True(t, neu.IsHoliday(time.Date(2025, time.April, 21, 10, 0, 0, 0, time.UTC)), "Easter Monday 2025")
	assert.False(t, neu.IsHoliday(time.Date(2025, time.April, 22, 10, 0, 0, 0, time.UTC)))
}

func TestIsHoliday_UnconfiguredYearHasNoHolidays(t *testing.T) {
	// Years without a configured table return false even for Christmas.
	assert.False(t, neu.IsHoliday(time.Date(2035, time.December, 25, 10, 0, 0, 0, time.UTC)))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, neu.IsWeekend(time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)))  // Saturday
	assert.True(t, neu.IsWeekend(time.Date(2025, time.March, 16, 10, 0, 0, 0, time.UTC)))  // Sunday
	assert.False(t, neu.IsWeekend(time.Date(2025, time.March, 17, 10, 0, 0, 0, time.UTC))) // Monday
}
