/*
Package neu provides the core NEU point ledger engine.

PURPOSE:
  This package contains the domain types and algorithms behind the internal
  "NEU" currency of the coworking space: amounts, the associative-year
  calendar, the shift tariff calculator, and the expiry-bucket reconciler
  that turns raw event history into a member's spendable balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (points or hours)
  - Earning/Spend: The two event shapes the reconciler consumes
  - TransactionType: Closed set of ledger transaction tags
  - MemberID/TransactionID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Derivation: Balance is always recomputed from events, never incremented
  3. Type Safety: Strong typing for IDs and transaction tags
  4. Exhaustiveness: Transaction classification switches over the full tag set

SEE ALSO:
  - calendar.go: Associative-year and holiday rules
  - tariff.go: Shift point calculation
  - reconcile.go: Expiry-bucket reconciliation
*/
package neu

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitPoints Unit = "points"
	UnitHours  Unit = "hours"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func ZeroAmount(unit Unit) Amount {
	return Amount{Value: decimal.Zero, Unit: unit}
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) Round2() Amount            { return Amount{Value: a.Value.Round(2), Unit: a.Unit} }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MustParseDecimal parses a stored decimal string; malformed input yields zero.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type TransactionID string

// =============================================================================
// TRANSACTION TYPES - Closed tagged set
// =============================================================================

// TransactionType tags a ledger transaction with its origin.
// The set is closed: classification switches must handle every tag.
type TransactionType string

const (
	TxShiftEarning        TransactionType = "shift_earning"        // Mirrored from a worked shift
	TxVolunteeringEarning TransactionType = "volunteering_earning" // Mirrored from a volunteering declaration
	TxPeerTransfer        TransactionType = "peer_transfer"        // Member-to-member transfer
	TxAssociationPayment  TransactionType = "association_payment"  // Payment to/from the association
	TxAdminCorrection     TransactionType = "admin_correction"     // Manual staff correction
)

// CountsAsEarning reports whether an incoming transaction of this type adds
// to the balance during recalculation. Shift and volunteering earnings are
// excluded: they are sourced from their origin tables, and counting the
// mirrored transaction too would double them.
func CountsAsEarning(t TransactionType) bool {
	switch t {
	case TxShiftEarning, TxVolunteeringEarning:
		return false
	case TxPeerTransfer, TxAssociationPayment, TxAdminCorrection:
		return true
	}
	return false
}

// CountsAsSpend reports whether an outgoing transaction of this type reduces
// the balance. Shift and volunteering tags never appear on outgoing rows in
// normal operation and classify as non-spends.
func CountsAsSpend(t TransactionType) bool {
	switch t {
	case TxShiftEarning, TxVolunteeringEarning:
		return false
	case TxPeerTransfer, TxAssociationPayment, TxAdminCorrection:
		return true
	}
	return false
}

// =============================================================================
// RECONCILER INPUT EVENTS
// =============================================================================

// Earning is a single positive point event. At is the event's own date,
// which alone determines the expiry bucket it falls into.
type Earning struct {
	At     time.Time
	Amount Amount
	Source string // "shift", "volunteering", or a transaction type tag
	Ref    string // originating row id, for diagnostics
}

// Spend is a single outgoing point event. A spend may only drain buckets
// that were still unexpired at Spend.At.
type Spend struct {
	At     time.Time
	Amount Amount
	Ref    string
}

// =============================================================================
// BALANCE SNAPSHOT - Result of one recalculation pass
// =============================================================================

type BalanceSnapshot struct {
	MemberID       MemberID
	AsOf           time.Time
	Balance        Amount
	ExpiringSoon   Amount
	NextExpiry     *time.Time
	VolunteerHours Amount // confirmed volunteering hours in the current associative year
}
