package commands

import (
	"context"
	"time"

	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/slot"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaseStore owns lease records. Commit must be atomic per slot coordinate:
// of two concurrent commits with overlapping windows, exactly one succeeds
// and the loser fails with infra.KindConflict.
type LeaseStore interface {
	Overlapping(ctx context.Context, coord slot.Coordinate, window lease.Window) ([]*lease.Lease, error)
	ActiveAt(ctx context.Context, coord slot.Coordinate, at time.Time) (*lease.Lease, error)
	ActiveByProduct(ctx context.Context, product slot.ProductKind, ownerID uuid.UUID, at time.Time) ([]*lease.Lease, error)
	Commit(ctx context.Context, l *lease.Lease) error
	History(ctx context.Context, coord slot.Coordinate) ([]*lease.Lease, error)
	FindByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error)
}

// LedgerStore owns balances. Apply is all-or-nothing; it fails with
// infra.KindInsufficientFunds when any resulting balance would go negative,
// and creates missing credit-side accounts at zero.
type LedgerStore interface {
	Apply(ctx context.Context, tx ledger.Transaction) error
	Balance(ctx context.Context, key ledger.AccountKey) (decimal.Decimal, error)
	BalancesByOwner(ctx context.Context, ownerID uuid.UUID) (map[ledger.Currency]decimal.Decimal, error)
	EnsureAccount(ctx context.Context, key ledger.AccountKey, opening decimal.Decimal) error
}

// RateStore holds per-slot daily rates. Find returns infra.KindNotFound for
// slots whose owner never configured one.
type RateStore interface {
	Find(ctx context.Context, coord slot.Coordinate) (decimal.Decimal, error)
	Upsert(ctx context.Context, coord slot.Coordinate, daily decimal.Decimal) error
}

// NotificationStore queues fire-and-forget events for the notification
// subsystem. Delivery and retry belong to that subsystem, not here.
type NotificationStore interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

type IdempotencyRecord struct {
	Key           uuid.UUID
	UserID        uuid.UUID
	Status        string
	RequestHash   string
	ResultLeaseID *uuid.UUID
	ExpiresAt     time.Time
}

// IdempotencyStore records purchase attempts by client-supplied key.
// TryInsert reports whether it created the record; false means a request
// with this key was already seen.
type IdempotencyStore interface {
	TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, key, userID uuid.UUID, resultLeaseID uuid.UUID) error
}
