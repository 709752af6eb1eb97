/*
calendar.go - Associative-year and holiday rules

PURPOSE:
  Pure calendar functions for the ledger: the association's fiscal-like year
  (October 1 through September 30), the expiry date of earned points, and the
  Italian public-holiday lookup used by the shift tariff.

ASSOCIATIVE YEAR:
  Runs Oct 1 00:00:00 through Sep 30 23:59:59. A date in Oct-Dec belongs to
  the year starting that October; Jan-Sep dates belong to the year that
  started the previous October.

EXPIRY RULE:
  Points earned in associative year Oct(Y) - Sep(Y+1) expire at the end of
  calendar year Y+1: Dec 31 23:59:59. An earning on 2024-11-01 falls in
  Oct-2024 - Sep-2025 and expires 2025-12-31.

HOLIDAYS:
  National holidays are statically configured per year. Years without a
  configured list have no holidays; the tariff then treats those days as
  plain weekdays.

SEE ALSO:
  - tariff.go: Consumes IsHoliday for the extra tier
  - reconcile.go: Consumes ExpiryDate for bucket keys
*/
package neu

import "time"

// =============================================================================
// PERIOD
// =============================================================================

// Period is a closed time range [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the period, inclusive.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// =============================================================================
// ASSOCIATIVE YEAR
// =============================================================================

// AssociativeYear returns the associative year containing ref:
// Oct 1 00:00:00 through Sep 30 23:59:59 of the following calendar year.
func AssociativeYear(ref time.Time) Period {
	startYear := ref.Year()
	if ref.Month() < time.October {
		startYear--
	}
	return Period{
		Start: time.Date(startYear, time.October, 1, 0, 0, 0, 0, ref.Location()),
		End:   time.Date(startYear+1, time.September, 30, 23, 59, 59, 0, ref.Location()),
	}
}

// ExpiryDate returns when points earned at eventDate lapse: Dec 31 23:59:59
// of the calendar year immediately following the event's associative year.
func ExpiryDate(eventDate time.Time) time.Time {
	year := AssociativeYear(eventDate)
	return time.Date(year.End.Year(), time.December, 31, 23, 59, 59, 0, time.UTC)
}

// =============================================================================
// HOLIDAY TABLE - Italian national holidays, configured per year
// =============================================================================

type monthDay struct {
	Month time.Month
	Day   int
}

// Fixed-date national holidays, same every year.
var fixedHolidays = []monthDay{
	{time.January, 1},   // Capodanno
	{time.January, 6},   // Epifania
	{time.April, 25},    // Liberazione
	{time.May, 1},       // Festa del Lavoro
	{time.June, 2},      // Festa della Repubblica
	{time.August, 15},   // Ferragosto
	{time.November, 1},  // Ognissanti
	{time.December, 8},  // Immacolata
	{time.December, 25}, // Natale
	{time.December, 26}, // Santo Stefano
}

// Easter Monday per configured year. Years absent from this table fall back
// to the fixed list only.
var easterMonday = map[int]monthDay{
	2023: {time.April, 10},
	2024: {time.April, 1},
	2025: {time.April, 21},
	2026: {time.April, 6},
	2027: {time.March, 29},
	2028: {time.April, 17},
}

// holidaysConfigured reports whether the table covers the given year.
// Years outside the configured window have no holidays at all, mirroring
// the stored per-year lists this replaces.
func holidaysConfigured(year int) bool {
	_, ok := easterMonday[year]
	return ok
}

// IsHoliday reports whether the calendar day of t is a national holiday.
// Time of day is ignored. Unconfigured years always return false.
func IsHoliday(t time.Time) bool {
	if !holidaysConfigured(t.Year()) {
		return false
	}
	for _, h := range fixedHolidays {
		if t.Month() == h.Month && t.Day() == h.Day {
			return true
		}
	}
	if em := easterMonday[t.Year()]; t.Month() == em.Month && t.Day() == em.Day {
		return true
	}
	return false
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
