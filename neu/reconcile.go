/*
reconcile.go - Expiry-bucket reconciliation

PURPOSE:
  The central ledger algorithm. Given every earning and every spend for one
  member, it derives the current balance and the amount tied to the nearest
  expiry date.

ALGORITHM:
  1. Bucket all earnings by their expiry date (calendar.go), grouping
     earnings that share an expiry into one bucket.
  2. Process spends in ascending date order.
  3. Each spend drains buckets oldest-expiring first, but may only touch
     buckets whose expiry is on or after the spend's own date: you cannot
     spend points that had already expired when you spent them.
  4. Deductions clamp at zero; a spend larger than everything eligible
     drains what it can and stops. Callers validate sufficient balance
     before writing a spend, so overspend is not an error here.
  5. Buckets expired before "now" are discarded regardless of remainder.
  6. Balance = sum of surviving buckets; expiring-soon = remainder of the
     earliest surviving non-empty bucket. Both rounded to 2 decimals.

INVARIANTS:
  - An earning's bucket is determined solely by its own event date.
  - Reconciliation is pure: same inputs, same outputs, no hidden state.

SEE ALSO:
  - calendar.go: ExpiryDate
  - ledger/recalc.go: Gathers events and persists the result
*/
package neu

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BUCKETS
// =============================================================================

// Bucket is the remainder of one expiry cohort after all spends applied.
// Buckets are transient: they exist only during a reconciliation pass.
type Bucket struct {
	Expiry    time.Time
	Remaining Amount
}

// ReconcileResult is the output of one reconciliation pass.
type ReconcileResult struct {
	Balance      Amount
	ExpiringSoon Amount
	NextExpiry   *time.Time
	Buckets      []Bucket // surviving buckets, ascending by expiry
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile buckets earnings by expiry date, nets out spends in expiry order
// bounded by temporal eligibility, and returns the balance as of now.
func Reconcile(earnings []Earning, spends []Spend, now time.Time) ReconcileResult {
	// 1. Bucket earnings by expiry date.
	buckets := make(map[time.Time]decimal.Decimal)
	for _, e := range earnings {
		if e.At.IsZero() || !e.Amount.IsPositive() {
			continue
		}
		exp := ExpiryDate(e.At)
		buckets[exp] = buckets[exp].Add(e.Amount.Value)
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	// 2. Oldest spends first; sort is stable so same-day spends keep input order.
	ordered := make([]Spend, len(spends))
	copy(ordered, spends)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].At.Before(ordered[j].At) })

	// 3-4. Drain eligible buckets, oldest expiry first, clamped at zero.
	for _, s := range ordered {
		if s.At.IsZero() || !s.Amount.IsPositive() {
			continue
		}
		remaining := s.Amount.Value
		for _, k := range keys {
			if k.Before(s.At) {
				continue // bucket had already expired when this spend happened
			}
			avail := buckets[k]
			if !avail.IsPositive() {
				continue
			}
			take := decimal.Min(avail, remaining)
			buckets[k] = avail.Sub(take)
			remaining = remaining.Sub(take)
			if !remaining.IsPositive() {
				break
			}
		}
		// Anything still remaining is an overspend: drained and dropped.
	}

	// 5-6. Discard expired buckets, sum the rest.
	result := ReconcileResult{
		Balance:      ZeroAmount(UnitPoints),
		ExpiringSoon: ZeroAmount(UnitPoints),
	}
	total := decimal.Zero
	for _, k := range keys {
		if k.Before(now) {
			continue
		}
		rem := buckets[k]
		total = total.Add(rem)
		if rem.IsPositive() {
			if result.NextExpiry == nil {
				exp := k
				result.NextExpiry = &exp
				result.ExpiringSoon = Amount{Value: rem.Round(2), Unit: UnitPoints}
			}
			result.Buckets = append(result.Buckets, Bucket{
				Expiry:    k,
				Remaining: Amount{Value: rem.Round(2), Unit: UnitPoints},
			})
		}
	}
	result.Balance = Amount{Value: total.Round(2), Unit: UnitPoints}
	return result
}
