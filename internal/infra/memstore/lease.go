// Package memstore provides process-local implementations of the store
// ports. They honor the same atomicity contracts as the Postgres stores and
// back the unit tests and single-node library use.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"

	"github.com/google/uuid"
)

type LeaseStore struct {
	mu     sync.RWMutex
	bySlot map[string][]*lease.Lease
	byID   map[uuid.UUID]*lease.Lease
}

func NewLeaseStore() *LeaseStore {
	return &LeaseStore{
		bySlot: make(map[string][]*lease.Lease),
		byID:   make(map[uuid.UUID]*lease.Lease),
	}
}

// Commit re-checks overlap and appends under one lock, so of two racing
// commits for the same window exactly one wins and the loser sees CONFLICT.
func (s *LeaseStore) Commit(_ context.Context, l *lease.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := l.Coordinate().String()
	for _, existing := range s.bySlot[key] {
		if existing.Window().Overlaps(l.Window()) {
			return infra.NewRepoErr(infra.KindConflict, "overlapping lease already committed", nil)
		}
	}

	s.bySlot[key] = append(s.bySlot[key], l)
	sort.Slice(s.bySlot[key], func(i, j int) bool {
		return s.bySlot[key][i].Window().Start().Before(s.bySlot[key][j].Window().Start())
	})
	s.byID[l.ID()] = l
	return nil
}

func (s *LeaseStore) Overlapping(_ context.Context, coord slot.Coordinate, window lease.Window) ([]*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*lease.Lease
	for _, l := range s.bySlot[coord.String()] {
		if l.Window().Overlaps(window) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *LeaseStore) ActiveAt(_ context.Context, coord slot.Coordinate, at time.Time) (*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.bySlot[coord.String()] {
		if l.Window().Contains(at) {
			return l, nil
		}
	}
	return nil, nil
}

func (s *LeaseStore) ActiveByProduct(_ context.Context, product slot.ProductKind, ownerID uuid.UUID, at time.Time) ([]*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*lease.Lease
	for _, leases := range s.bySlot {
		for _, l := range leases {
			coord := l.Coordinate()
			if coord.Product == product && coord.OwnerID == ownerID && l.Window().Contains(at) {
				out = append(out, l)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Coordinate().Index < out[j].Coordinate().Index
	})
	return out, nil
}

func (s *LeaseStore) History(_ context.Context, coord slot.Coordinate) ([]*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leases := s.bySlot[coord.String()]
	out := make([]*lease.Lease, len(leases))
	copy(out, leases)
	return out, nil
}

func (s *LeaseStore) FindByID(_ context.Context, id uuid.UUID) (*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byID[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "lease not found", nil)
	}
	return l, nil
}
