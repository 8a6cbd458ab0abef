package memstore

import (
	"context"
	"sync"

	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"

	"github.com/shopspring/decimal"
)

type RateStore struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

func NewRateStore() *RateStore {
	return &RateStore{rates: make(map[string]decimal.Decimal)}
}

func (s *RateStore) Find(_ context.Context, coord slot.Coordinate) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate, ok := s.rates[coord.String()]
	if !ok {
		return decimal.Zero, infra.NewRepoErr(infra.KindNotFound, "no rate configured for slot", nil)
	}
	return rate, nil
}

func (s *RateStore) Upsert(_ context.Context, coord slot.Coordinate, daily decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rates[coord.String()] = daily
	return nil
}
