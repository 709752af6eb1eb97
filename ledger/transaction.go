/*
transaction.go - The append-only transaction log entry

PURPOSE:
  One row of the NEU transaction log. Amounts are always positive; direction
  is implied by which member id is populated. A nil From means the
  association is the source (association payments, admin grants); a nil To
  means points left the member toward the association.

LIFECYCLE:
  Append-only in normal operation. The only delete path is the paired
  removal of mirror rows when their originating shift or declaration is
  deleted by staff.
*/
package ledger

import (
	"time"

	"github.com/coworkhub/neu-engine/neu"
)

// Transaction is one entry of the append-only point log.
type Transaction struct {
	ID            neu.TransactionID
	From          *neu.MemberID // nil = association
	To            *neu.MemberID // nil = association
	Amount        neu.Amount    // always positive
	Type          neu.TransactionType
	Memo          string
	OccurredAt    time.Time
	ShiftID       string // back-reference for shift_earning mirrors
	DeclarationID string // back-reference for volunteering_earning mirrors
	CreatedAt     time.Time
}
