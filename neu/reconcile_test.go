package neu_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coworkhub/neu-engine/neu"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func earning(date string, amount string) neu.Earning {
	return neu.Earning{
		At:     mustDate(date),
		Amount: neu.Amount{Value: decimal.RequireFromString(amount), Unit: neu.UnitPoints},
	}
}

func spend(date string, amount string) neu.Spend {
	return neu.Spend{
		At:     mustDate(date),
		Amount: neu.Amount{Value: decimal.RequireFromString(amount), Unit: neu.UnitPoints},
	}
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// =============================================================================
// BUCKETING AND BALANCE
// =============================================================================

func TestReconcile_EarningsGroupByExpiry(t *testing.T) {
	// GIVEN: Two earnings in the same associative year and one in the next
	// THEN: Two buckets, one per expiry date

	res := neu.Reconcile([]neu.Earning{
		earning("2024-11-01", "10"), // expires 2025-12-31
		earning("2025-02-01", "5"),  // same year, same bucket
		earning("2025-10-15", "7"),  // expires 2026-12-31
	}, nil, mustDate("2025-11-01"))

	require.Len(t, res.Buckets, 2)
	assert.Equal(t, "15", res.Buckets[0].Remaining.Value.String())
	assert.Equal(t, "7", res.Buckets[1].Remaining.Value.String())
	assert.Equal(t, "22", res.Balance.Value.String())
	assert.Equal(t, "15", res.ExpiringSoon.Value.String())
	require.NotNil(t, res.NextExpiry)
	assert.Equal(t, 2025, res.NextExpiry.Year())
}

func TestReconcile_SpendDrainsOldestBucketFirst(t *testing.T) {
	// GIVEN: Buckets expiring 2025 (10) and 2026 (7), a spend of 12
	// WHEN: Reconciling
	// THEN: The 2025 bucket is emptied and 2 spills into the 2026 bucket

	res := neu.Reconcile([]neu.Earning{
		earning("2024-11-01", "10"),
		earning("2025-10-15", "7"),
	}, []neu.Spend{
		spend("2025-11-01", "12"),
	}, mustDate("2025-11-02"))

	require.Len(t, res.Buckets, 1)
	assert.Equal(t, "5", res.Balance.Value.String())
	assert.Equal(t, "5", res.ExpiringSoon.Value.String())
	assert.Equal(t, 2026, res.NextExpiry.Year())
}

func TestReconcile_SpendCannotTouchBucketsExpiredAtSpendTime(t *testing.T) {
	// GIVEN: An earning whose bucket expired end of 2025 and a spend in 2026
	// THEN: The spend cannot drain the expired bucket

	res := neu.Reconcile([]neu.Earning{
		earning("2024-11-01", "10"), // expired 2025-12-31
		earning("2026-02-01", "8"),  // expires 2026-12-31
	}, []neu.Spend{
		spend("2026-03-01", "5"),
	}, mustDate("2026-03-15"))

	// The 2025 bucket was untouched by the spend but is discarded as expired.
	require.Len(t, res.Buckets, 1)
	assert.Equal(t, "3", res.Balance.Value.String())
}

func TestReconcile_OverspendClampsAtZero(t *testing.T) {
	// GIVEN: 10 points total and a spend of 25
	// THEN: Everything drains, balance is zero, no negative buckets

	res := neu.Reconcile([]neu.Earning{
		earning("2024-11-01", "10"),
	}, []neu.Spend{
		spend("2025-03-01", "25"),
	}, mustDate("2025-04-01"))

	assert.True(t, res.Balance.IsZero())
	assert.Empty(t, res.Buckets)
	assert.Nil(t, res.NextExpiry)
}

func TestReconcile_ExpiredBucketsDiscardedRegardlessOfRemainder(t *testing.T) {
	// GIVEN: An untouched earning whose expiry has passed
	// THEN: Its remainder does not count toward the balance

	res := neu.Reconcile([]neu.Earning{
		earning("2023-11-01", "10"), // expired 2024-12-31
	}, nil, mustDate("2025-06-01"))

	assert.True(t, res.Balance.IsZero())
	assert.Nil(t, res.NextExpiry)
}

func TestReconcile_DrainedBucketNeverDrivesExpiringSoon(t *testing.T) {
	// GIVEN: The earliest bucket is fully drained by spends
	// THEN: Expiring-soon reports the earliest bucket that still holds points

	res := neu.Reconcile([]neu.Earning{
		earning("2024-11-01", "10"),
		earning("2025-11-01", "5"),
	}, []neu.Spend{
		spend("2025-11-10", "10"),
	}, mustDate("2025-11-15"))

	assert.Equal(t, "5", res.Balance.Value.String())
	assert.Equal(t, "5", res.ExpiringSoon.Value.String())
	require.NotNil(t, res.NextExpiry)
	assert.Equal(t, 2026, res.NextExpiry.Year())
}

// =============================================================================
// ORDERING AND ROBUSTNESS
// =============================================================================

func TestReconcile_SpendOrderIsByDateNotInputOrder(t *testing.T) {
	// GIVEN: Spends supplied newest-first
	// THEN: Result matches date-ascending processing

	earnings := []neu.Earning{
		earning("2024-11-01", "10"),
		earning("2025-10-15", "10"),
	}
	shuffled := []neu.Spend{
		spend("2025-11-01", "4"),
		spend("2025-02-01", "8"),
	}
	ordered := []neu.Spend{
		spend("2025-02-01", "8"),
		spend("2025-11-01", "4"),
	}

	now := mustDate("2025-11-02")
	a := neu.Reconcile(earnings, shuffled, now)
	b := neu.Reconcile(earnings, ordered, now)

	assert.True(t, a.Balance.Value.Equal(b.Balance.Value))
	assert.Equal(t, "8", a.Balance.Value.String())
}

func TestReconcile_Idempotent(t *testing.T) {
	// Running the same inputs twice yields identical results.
	earnings := []neu.Earning{earning("2024-11-01", "10.5"), earning("2025-01-01", "3.25")}
	spends := []neu.Spend{spend("2025-02-01", "4.75")}
	now := mustDate("2025-06-01")

	first := neu.Reconcile(earnings, spends, now)
	second := neu.Reconcile(earnings, spends, now)

	assert.True(t, first.Balance.Value.Equal(second.Balance.Value))
	assert.True(t, first.ExpiringSoon.Value.Equal(second.ExpiringSoon.Value))
	assert.Equal(t, "9", first.Balance.Value.String())
}

func TestReconcile_SkipsZeroDatedAndNonPositiveEvents(t *testing.T) {
	// Malformed events carry a zero date; they must not contribute.
	res := neu.Reconcile([]neu.Earning{
		{At: time.Time{}, Amount: neu.Amount{Value: decimal.RequireFromString("99"), Unit: neu.UnitPoints}},
		earning("2024-11-01", "0"),
		earning("2024-11-01", "10"),
	}, []neu.Spend{
		{At: time.Time{}, Amount: neu.Amount{Value: decimal.RequireFromString("99"), Unit: neu.UnitPoints}},
	}, mustDate("2025-06-01"))

	assert.Equal(t, "10", res.Balance.Value.String())
}

func TestReconcile_EmptyInputs(t *testing.T) {
	res := neu.Reconcile(nil, nil, mustDate("2025-06-01"))

	assert.True(t, res.Balance.IsZero())
	assert.True(t, res.ExpiringSoon.IsZero())
	assert.Nil(t, res.NextExpiry)
	assert.Empty(t, res.Buckets)
}

// End-to-end: earn in two years, overspend the first bucket, verify the
// spill and the expiring-soon remainder.
func TestReconcile_SpillAcrossYears(t *testing.T) {
	res := neu.Reconcile([]neu.Earning{
		earning("2024-11-05", "10"), // expires 2025-12-31
		earning("2025-10-10", "5"),  // expires 2026-12-31
	}, []neu.Spend{
		spend("2025-11-20", "12"),
	}, mustDate("2025-11-21"))

	assert.Equal(t, "3", res.Balance.Value.String())
	assert.Equal(t, "3", res.ExpiringSoon.Value.String())
	require.NotNil(t, res.NextExpiry)
	assert.Equal(t, time.December, res.NextExpiry.Month())
	assert.Equal(t, 2026, res.NextExpiry.Year())
}
