/*
tariff.go - Shift point calculation

PURPOSE:
  Converts a shift's start/end timestamps into earned NEU points using a
  three-tier time-of-day tariff:

    weekend or holiday             -> extra    6 points/hour
    weekday 09:00 - 18:30          -> standard 2.5 points/hour
    weekday 18:30 - 20:30          -> evening  4 points/hour
    weekday outside 09:00 - 20:30  -> extra    6 points/hour

ALGORITHM:
  The interval is walked minute by minute and each minute is classified into
  a tier. Minute granularity matters: a shift may cross a tariff boundary
  mid-hour (18:00-19:00 splits into 30 standard + 30 evening minutes).
  Fractional hours and points are accumulated per tier and every returned
  aggregate is rounded to 2 decimal places.

MALFORMED SHIFTS:
  end <= start yields a zeroed breakdown rather than an error. Historical
  shifts may be malformed and the caller decides whether to reject.

SEE ALSO:
  - calendar.go: IsHoliday/IsWeekend
  - ledger/recalc.go: Feeds shift points into the reconciler
*/
package neu

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TARIFF RATES
// =============================================================================

// Points per hour by tier.
var (
	RateStandard = decimal.RequireFromString("2.5")
	RateEvening  = decimal.RequireFromString("4")
	RateExtra    = decimal.RequireFromString("6")
)

// Weekday tier boundaries, minutes from midnight.
const (
	standardOpen  = 9 * 60            // 09:00
	standardClose = 18*60 + 30        // 18:30
	eveningClose  = 20*60 + 30        // 20:30
)

// Tier classifies one minute of a shift.
type Tier string

const (
	TierStandard Tier = "standard"
	TierEvening  Tier = "evening"
	TierExtra    Tier = "extra"
)

// DayType is the reporting tag stored on a shift, derived from its start.
type DayType string

const (
	DayWeekdayMorning DayType = "weekday-morning"
	DayWeekdayEvening DayType = "weekday-evening"
	DayWeekend        DayType = "weekend"
	DayHoliday        DayType = "holiday"
)

// =============================================================================
// BREAKDOWN
// =============================================================================

// TierTotal is the hours and points accumulated within one tier.
type TierTotal struct {
	Hours  Amount
	Points Amount
}

// ShiftBreakdown is the full result of pricing one shift.
type ShiftBreakdown struct {
	Hours    Amount
	Points   Amount
	Standard TierTotal
	Evening  TierTotal
	Extra    TierTotal
}

// =============================================================================
// CALCULATION
// =============================================================================

var sixty = decimal.NewFromInt(60)

// classifyMinute assigns the minute beginning at t to a tier.
func classifyMinute(t time.Time) Tier {
	if IsWeekend(t) || IsHoliday(t) {
		return TierExtra
	}
	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= standardOpen && m < standardClose:
		return TierStandard
	case m >= standardClose && m < eveningClose:
		return TierEvening
	default:
		return TierExtra
	}
}

// ShiftPoints walks [start, end) in one-minute steps and accumulates hours
// and points per tier. Returns a zeroed breakdown when end <= start.
func ShiftPoints(start, end time.Time) ShiftBreakdown {
	zero := ShiftBreakdown{
		Hours:    ZeroAmount(UnitHours),
		Points:   ZeroAmount(UnitPoints),
		Standard: TierTotal{Hours: ZeroAmount(UnitHours), Points: ZeroAmount(UnitPoints)},
		Evening:  TierTotal{Hours: ZeroAmount(UnitHours), Points: ZeroAmount(UnitPoints)},
		Extra:    TierTotal{Hours: ZeroAmount(UnitHours), Points: ZeroAmount(UnitPoints)},
	}
	if !end.After(start) {
		return zero
	}

	var standardMin, eveningMin, extraMin int64
	for t := start; t.Before(end); t = t.Add(time.Minute) {
		switch classifyMinute(t) {
		case TierStandard:
			standardMin++
		case TierEvening:
			eveningMin++
		default:
			extraMin++
		}
	}

	tier := func(minutes int64, rate decimal.Decimal) TierTotal {
		hours := decimal.NewFromInt(minutes).Div(sixty)
		return TierTotal{
			Hours:  Amount{Value: hours.Round(2), Unit: UnitHours},
			Points: Amount{Value: hours.Mul(rate).Round(2), Unit: UnitPoints},
		}
	}

	b := zero
	b.Standard = tier(standardMin, RateStandard)
	b.Evening = tier(eveningMin, RateEvening)
	b.Extra = tier(extraMin, RateExtra)

	totalHours := decimal.NewFromInt(standardMin + eveningMin + extraMin).Div(sixty)
	totalPoints := decimal.NewFromInt(standardMin).Div(sixty).Mul(RateStandard).
		Add(decimal.NewFromInt(eveningMin).Div(sixty).Mul(RateEvening)).
		Add(decimal.NewFromInt(extraMin).Div(sixty).Mul(RateExtra))
	b.Hours = Amount{Value: totalHours.Round(2), Unit: UnitHours}
	b.Points = Amount{Value: totalPoints.Round(2), Unit: UnitPoints}
	return b
}

// ShiftDayType derives the reporting tag for a shift from its start time.
func ShiftDayType(start time.Time) DayType {
	switch {
	case IsHoliday(start):
		return DayHoliday
	case IsWeekend(start):
		return DayWeekend
	case start.Hour()*60+start.Minute() >= standardClose:
		return DayWeekdayEvening
	default:
		return DayWeekdayMorning
	}
}
