// Package memory provides an in-memory store for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coworkhub/neu-engine/ledger"
	"github.com/coworkhub/neu-engine/neu"
)

// =============================================================================
// MEMORY STORE - Implements ledger.MemberStore and ledger.EventSource
// =============================================================================

type Store struct {
	mu           sync.RWMutex
	members      map[neu.MemberID]*ledger.Member
	shifts       map[neu.MemberID][]ledger.ShiftEvent
	declarations map[neu.MemberID][]ledger.DeclarationEvent
	incoming     map[neu.MemberID][]ledger.TransactionEvent
	outgoing     map[neu.MemberID][]ledger.TransactionEvent

	// UpdateCount tracks balance writes per member, for asserting the
	// one-update-per-recalculation contract.
	UpdateCount map[neu.MemberID]int
}

func New() *Store {
	return &Store{
		members:      make(map[neu.MemberID]*ledger.Member),
		shifts:       make(map[neu.MemberID][]ledger.ShiftEvent),
		declarations: make(map[neu.MemberID][]ledger.DeclarationEvent),
		incoming:     make(map[neu.MemberID][]ledger.TransactionEvent),
		outgoing:     make(map[neu.MemberID][]ledger.TransactionEvent),
		UpdateCount:  make(map[neu.MemberID]int),
	}
}

// =============================================================================
// FIXTURE SETUP
// =============================================================================

func (s *Store) AddMember(m ledger.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := m
	s.members[m.ID] = &copied
}

func (s *Store) AddShift(id neu.MemberID, ev ledger.ShiftEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[id] = append(s.shifts[id], ev)
}

func (s *Store) AddDeclaration(id neu.MemberID, ev ledger.DeclarationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declarations[id] = append(s.declarations[id], ev)
}

func (s *Store) AddIncoming(id neu.MemberID, ev ledger.TransactionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incoming[id] = append(s.incoming[id], ev)
}

func (s *Store) AddOutgoing(id neu.MemberID, ev ledger.TransactionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outgoing[id] = append(s.outgoing[id], ev)
}

// =============================================================================
// ledger.MemberStore
// =============================================================================

func (s *Store) GetMember(_ context.Context, id neu.MemberID) (*ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (s *Store) ListMemberIDs(_ context.Context) ([]neu.MemberID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]neu.MemberID, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) UpdateBalances(_ context.Context, id neu.MemberID, snap neu.BalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return neu.ErrMemberNotFound
	}
	m.Balance = snap.Balance
	m.BalanceExpiringSoon = snap.ExpiringSoon
	m.NextExpiry = snap.NextExpiry
	m.VolunteerHoursYear = snap.VolunteerHours
	s.UpdateCount[id]++
	return nil
}

// =============================================================================
// ledger.EventSource
// =============================================================================

func (s *Store) ShiftsByMember(_ context.Context, id neu.MemberID) ([]ledger.ShiftEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.ShiftEvent, len(s.shifts[id]))
	copy(out, s.shifts[id])
	return out, nil
}

func (s *Store) DeclarationsByMember(_ context.Context, id neu.MemberID) ([]ledger.DeclarationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.DeclarationEvent, len(s.declarations[id]))
	copy(out, s.declarations[id])
	return out, nil
}

func (s *Store) IncomingByMember(_ context.Context, id neu.MemberID) ([]ledger.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.TransactionEvent, len(s.incoming[id]))
	copy(out, s.incoming[id])
	return out, nil
}

func (s *Store) OutgoingByMember(_ context.Context, id neu.MemberID) ([]ledger.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.TransactionEvent, len(s.outgoing[id]))
	copy(out, s.outgoing[id])
	return out, nil
}
