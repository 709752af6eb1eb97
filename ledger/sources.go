/*
sources.go - Event stream interfaces consumed by the Recalculator

PURPOSE:
  Read-only accessors over the four event kinds, plus the single balance
  write-back. Stores return events with zero-valued dates when the stored
  date could not be parsed; the Recalculator skips those rows instead of
  aborting (one bad historical row must not block a member's balance).

IMPLEMENTATIONS:
  - store/sqlite: Production store
  - store/memory: In-memory store for tests
*/
package ledger

import (
	"context"
	"time"

	"github.com/coworkhub/neu-engine/neu"
)

// =============================================================================
// EVENT SHAPES
// =============================================================================

// ShiftEvent is one worked shift as the ledger sees it.
type ShiftEvent struct {
	ID     string
	Start  time.Time // zero when the stored date was unparseable
	End    time.Time
	Hours  neu.Amount
	Points neu.Amount
}

// DeclarationEvent is one volunteering declaration.
type DeclarationEvent struct {
	ID         string
	DeclaredAt time.Time
	Hours      neu.Amount
	Points     neu.Amount // zero for legacy hour-only entries
	Confirmed  bool
}

// TransactionEvent is one row of the append-only transaction log, viewed
// from one member's side (incoming or outgoing).
type TransactionEvent struct {
	ID         neu.TransactionID
	Type       neu.TransactionType
	Amount     neu.Amount
	OccurredAt time.Time
}

// =============================================================================
// SOURCE INTERFACES
// =============================================================================

// EventSource provides the four read-only event streams for one member.
// All history is treated as immutable for the duration of one pass.
type EventSource interface {
	ShiftsByMember(ctx context.Context, id neu.MemberID) ([]ShiftEvent, error)
	DeclarationsByMember(ctx context.Context, id neu.MemberID) ([]DeclarationEvent, error)
	IncomingByMember(ctx context.Context, id neu.MemberID) ([]TransactionEvent, error)
	OutgoingByMember(ctx context.Context, id neu.MemberID) ([]TransactionEvent, error)
}

// MemberStore is the member lookup plus the one balance write-back.
// UpdateBalances is reachable only from the Recalculator.
type MemberStore interface {
	GetMember(ctx context.Context, id neu.MemberID) (*Member, error)
	ListMemberIDs(ctx context.Context) ([]neu.MemberID, error)
	UpdateBalances(ctx context.Context, id neu.MemberID, snap neu.BalanceSnapshot) error
}
