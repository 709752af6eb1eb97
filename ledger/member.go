/*
Package ledger orchestrates NEU balance recalculation.

PURPOSE:
  This package owns the recalculation entry point invoked after any mutation
  touching a member's points. It gathers the four event streams (shifts,
  volunteering declarations, incoming and outgoing transactions), drives the
  reconciler in package neu, and persists the resulting balance fields.

ARCHITECTURAL RULE:
  The Recalculator is the ONLY writer of a member's balance fields anywhere
  in the system. Every other code path writes raw events and then calls
  Recalculate. The MemberStore interface exposes no other balance write.

SEE ALSO:
  - recalc.go: The orchestrator
  - sources.go: Event stream interfaces
  - neu/reconcile.go: The bucket algorithm
*/
package ledger

import (
	"time"

	"github.com/coworkhub/neu-engine/neu"
)

// =============================================================================
// MEMBER
// =============================================================================

// Profile is the member's role type. Employee and association profiles never
// earn shift points, though their hours are still recorded for scheduling.
type Profile string

const (
	ProfileMember      Profile = "member"
	ProfileEmployee    Profile = "employee"
	ProfileAssociation Profile = "association"
)

// NonEarning reports whether shifts for this profile earn zero points.
func (p Profile) NonEarning() bool {
	return p == ProfileEmployee || p == ProfileAssociation
}

// Member is the identity record carrying the two derived balance fields.
// Both are mutated exclusively by the Recalculator.
type Member struct {
	ID                  neu.MemberID
	Name                string
	Email               string
	Profile             Profile
	Balance             neu.Amount
	BalanceExpiringSoon neu.Amount
	NextExpiry          *time.Time
	VolunteerHoursYear  neu.Amount
	CreatedAt           time.Time
}
