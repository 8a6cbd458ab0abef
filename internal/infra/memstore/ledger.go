package memstore

import (
	"context"
	"sync"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerStore struct {
	mu       sync.Mutex
	balances map[ledger.AccountKey]decimal.Decimal
	applied  []ledger.Transaction
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		balances: make(map[ledger.AccountKey]decimal.Decimal),
	}
}

// Apply moves all deltas or none. The whole batch is staged against current
// balances first; one account going negative rejects the batch untouched.
// Credit-side accounts that do not exist yet are created at zero.
func (s *LedgerStore) Apply(_ context.Context, tx ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "invalid ledger transaction", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[ledger.AccountKey]decimal.Decimal, len(tx.Entries))
	for _, e := range tx.Entries {
		current, ok := staged[e.Account]
		if !ok {
			current = s.balances[e.Account]
		}
		next := current.Add(e.Delta)
		if next.IsNegative() {
			return infra.NewRepoErr(infra.KindInsufficientFunds, "balance would go negative", nil)
		}
		staged[e.Account] = next
	}

	for account, balance := range staged {
		s.balances[account] = balance
	}
	s.applied = append(s.applied, tx)
	return nil
}

func (s *LedgerStore) Balance(_ context.Context, key ledger.AccountKey) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[key], nil
}

func (s *LedgerStore) BalancesByOwner(_ context.Context, ownerID uuid.UUID) (map[ledger.Currency]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[ledger.Currency]decimal.Decimal)
	for key, balance := range s.balances {
		if key.OwnerID == ownerID {
			out[key.Currency] = balance
		}
	}
	return out, nil
}

// EnsureAccount seeds an opening balance once; an existing account keeps
// whatever it already holds.
func (s *LedgerStore) EnsureAccount(_ context.Context, key ledger.AccountKey, opening decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[key]; !ok {
		s.balances[key] = opening
	}
	return nil
}

// AppliedTransactions returns every batch applied so far, in order. Audit
// and test surface.
func (s *LedgerStore) AppliedTransactions() []ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ledger.Transaction, len(s.applied))
	copy(out, s.applied)
	return out
}
