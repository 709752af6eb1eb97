/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these to status codes via the helper predicates.

PROPAGATION POLICY:
  NotFound is the only condition that aborts a recalculation. Malformed
  events are skipped locally so one bad historical row never blocks a
  member's balance from being computed. Overspend is not an error inside
  the reconciler at all; callers pre-validate before writing a spend.

SEE ALSO:
  - reconcile.go: Permissive overspend behavior
  - ledger/recalc.go: Skip-and-continue on malformed events
*/
package neu

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMemberNotFound is returned when a recalculation or lookup targets
	// a member id that does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMalformedEvent marks an event with an unparseable or missing date.
	// Recovered locally: the event is excluded from bucket placement.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrInsufficientBalance is returned by spend pre-validation when the
	// stored balance does not cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when a request carries a zero or
	// negative point amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownTransactionType is returned when a transaction tag is not
	// in the closed set.
	ErrUnknownTransactionType = errors.New("unknown transaction type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a spend that pre-validation rejected.
type InsufficientBalanceError struct {
	MemberID  MemberID
	Available Amount
	Requested Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: available %v, requested %v",
		e.MemberID, e.Available.Value, e.Requested.Value)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// MalformedEventError identifies the event skipped during recalculation.
type MalformedEventError struct {
	Kind string // "shift", "declaration", "transaction"
	Ref  string
	At   time.Time
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event %s: unusable date %v", e.Kind, e.Ref, e.At)
}

func (e *MalformedEventError) Unwrap() error { return ErrMalformedEvent }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing member.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}

// IsClientError reports whether the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnknownTransactionType)
}
