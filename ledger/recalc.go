/*
recalc.go - The recalculation orchestrator

PURPOSE:
  Idempotent entry point invoked after any mutation affecting a member's
  points. Pulls fresh event lists, drives the reconciler, and writes back
  the balance, the expiring-soon amount, and the rolling volunteer-hours
  total for the current associative year.

DOUBLE-COUNT EXCLUSION:
  Shift and volunteering earnings are sourced directly from their origin
  tables. Incoming transactions tagged shift_earning or volunteering_earning
  are mirrors of those rows and are excluded from the earning set.

CONCURRENCY:
  Two mutations touching the same member can trigger overlapping
  recalculations. Each pass re-reads all events at call time, so a race only
  risks a stale overwrite that the next pass supersedes. The final
  read-then-write step is serialized per member with a keyed mutex; no
  ordering is guaranteed across different members.

FAILURE SEMANTICS:
  A missing member is the only abort (neu.ErrMemberNotFound). Events with
  unusable dates are skipped and logged, never fatal.
*/
package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coworkhub/neu-engine/neu"
)

// =============================================================================
// PER-MEMBER SERIALIZATION
// =============================================================================

// memberLocks hands out one mutex per member id.
type memberLocks struct {
	mu    sync.Mutex
	locks map[neu.MemberID]*sync.Mutex
}

func (ml *memberLocks) get(id neu.MemberID) *sync.Mutex {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.locks == nil {
		ml.locks = make(map[neu.MemberID]*sync.Mutex)
	}
	l, ok := ml.locks[id]
	if !ok {
		l = &sync.Mutex{}
		ml.locks[id] = l
	}
	return l
}

// =============================================================================
// RECALCULATOR
// =============================================================================

// Recalculator is the only writer of member balance fields.
type Recalculator struct {
	Members MemberStore
	Events  EventSource

	// Now is the evaluation clock; defaults to time.Now. Tests pin it.
	Now func() time.Time

	locks memberLocks
}

// NewRecalculator wires the orchestrator over its two collaborators.
func NewRecalculator(members MemberStore, events EventSource) *Recalculator {
	return &Recalculator{Members: members, Events: events, Now: time.Now}
}

func (rc *Recalculator) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

// Recalculate performs one full recompute for the given member and persists
// the result. Always a full pass, never incremental: the expiry-bucket
// reconciliation is order- and time-sensitive and incremental updates drift.
func (rc *Recalculator) Recalculate(ctx context.Context, id neu.MemberID) (neu.BalanceSnapshot, error) {
	lock := rc.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	member, err := rc.Members.GetMember(ctx, id)
	if err != nil {
		return neu.BalanceSnapshot{}, fmt.Errorf("load member %s: %w", id, err)
	}
	if member == nil {
		return neu.BalanceSnapshot{}, fmt.Errorf("recalculate %s: %w", id, neu.ErrMemberNotFound)
	}

	now := rc.now()
	earnings, spends, volunteerHours, err := rc.gather(ctx, id, now)
	if err != nil {
		return neu.BalanceSnapshot{}, err
	}

	result := neu.Reconcile(earnings, spends, now)

	snap := neu.BalanceSnapshot{
		MemberID:       id,
		AsOf:           now,
		Balance:        result.Balance,
		ExpiringSoon:   result.ExpiringSoon,
		NextExpiry:     result.NextExpiry,
		VolunteerHours: volunteerHours.Round2(),
	}

	if err := rc.Members.UpdateBalances(ctx, id, snap); err != nil {
		return neu.BalanceSnapshot{}, fmt.Errorf("persist balances for %s: %w", id, err)
	}
	return snap, nil
}

// RecalculateAll runs a full recompute for every member. Used by the admin
// bulk endpoint and the recalc CLI for one-off migrations and corrections.
func (rc *Recalculator) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := rc.Members.ListMemberIDs(ctx)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, id := range ids {
		if _, err := rc.Recalculate(ctx, id); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

// =============================================================================
// EVENT GATHERING
// =============================================================================

// gather loads the four event streams and classifies them into reconciler
// inputs. Rows with zero-valued dates are skipped and logged.
func (rc *Recalculator) gather(ctx context.Context, id neu.MemberID, now time.Time) ([]neu.Earning, []neu.Spend, neu.Amount, error) {
	var earnings []neu.Earning
	var spends []neu.Spend

	shifts, err := rc.Events.ShiftsByMember(ctx, id)
	if err != nil {
		return nil, nil, neu.Amount{}, fmt.Errorf("load shifts for %s: %w", id, err)
	}
	for _, sh := range shifts {
		if sh.Start.IsZero() {
			log.Printf("[Recalc] skipping shift %s for %s: %v", sh.ID, id,
				&neu.MalformedEventError{Kind: "shift", Ref: sh.ID})
			continue
		}
		earnings = append(earnings, neu.Earning{
			At:     sh.Start,
			Amount: sh.Points,
			Source: "shift",
			Ref:    sh.ID,
		})
	}

	year := neu.AssociativeYear(now)
	volunteerHours := neu.ZeroAmount(neu.UnitHours)

	decls, err := rc.Events.DeclarationsByMember(ctx, id)
	if err != nil {
		return nil, nil, neu.Amount{}, fmt.Errorf("load declarations for %s: %w", id, err)
	}
	for _, d := range decls {
		if !d.Confirmed {
			continue
		}
		if d.DeclaredAt.IsZero() {
			log.Printf("[Recalc] skipping declaration %s for %s: %v", d.ID, id,
				&neu.MalformedEventError{Kind: "declaration", Ref: d.ID})
			continue
		}
		if year.Contains(d.DeclaredAt) {
			volunteerHours = volunteerHours.Add(d.Hours)
		}
		if d.Points.IsPositive() {
			earnings = append(earnings, neu.Earning{
				At:     d.DeclaredAt,
				Amount: d.Points,
				Source: "volunteering",
				Ref:    d.ID,
			})
		}
	}

	incoming, err := rc.Events.IncomingByMember(ctx, id)
	if err != nil {
		return nil, nil, neu.Amount{}, fmt.Errorf("load incoming transactions for %s: %w", id, err)
	}
	for _, tx := range incoming {
		if !neu.CountsAsEarning(tx.Type) {
			continue // shift/volunteering mirrors: sourced from origin tables
		}
		if tx.OccurredAt.IsZero() {
			log.Printf("[Recalc] skipping incoming tx %s for %s: %v", tx.ID, id,
				&neu.MalformedEventError{Kind: "transaction", Ref: string(tx.ID)})
			continue
		}
		earnings = append(earnings, neu.Earning{
			At:     tx.OccurredAt,
			Amount: tx.Amount,
			Source: string(tx.Type),
			Ref:    string(tx.ID),
		})
	}

	outgoing, err := rc.Events.OutgoingByMember(ctx, id)
	if err != nil {
		return nil, nil, neu.Amount{}, fmt.Errorf("load outgoing transactions for %s: %w", id, err)
	}
	for _, tx := range outgoing {
		if !neu.CountsAsSpend(tx.Type) {
			continue
		}
		if tx.OccurredAt.IsZero() {
			log.Printf("[Recalc] skipping outgoing tx %s for %s: %v", tx.ID, id,
				&neu.MalformedEventError{Kind: "transaction", Ref: string(tx.ID)})
			continue
		}
		spends = append(spends, neu.Spend{
			At:     tx.OccurredAt,
			Amount: tx.Amount,
			Ref:    string(tx.ID),
		})
	}

	return earnings, spends, volunteerHours, nil
}
