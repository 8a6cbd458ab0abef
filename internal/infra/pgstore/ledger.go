package pgstore

import (
	"context"
	"errors"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Apply moves every delta of the batch inside one transaction. Each delta is
// an upsert that adds to the current balance; the schema's balance >= 0
// check rejects any account that would go negative, which rolls back the
// whole batch and surfaces as KindInsufficientFunds. Entries are journaled
// alongside for audit.
func (s *LedgerStore) Apply(ctx context.Context, tx ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "invalid ledger transaction", err)
	}

	err := withTx(ctx, s.pool, func(ctx context.Context, pgTx pgx.Tx) error {
		for _, e := range tx.Entries {
			if _, err := pgTx.Exec(ctx, `
				INSERT INTO ledger_accounts (owner_id, currency, balance)
				VALUES ($1, $2, $3)
				ON CONFLICT (owner_id, currency)
				DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance, updated_at = now()`,
				e.Account.OwnerID, e.Account.Currency.String(), e.Delta.String(),
			); err != nil {
				return err
			}

			if _, err := pgTx.Exec(ctx, `
				INSERT INTO ledger_entries (transaction_id, kind, owner_id, currency, delta)
				VALUES ($1, $2, $3, $4, $5)`,
				tx.ID, tx.Kind, e.Account.OwnerID, e.Account.Currency.String(), e.Delta.String(),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pgErrCode(err) == pgErrCodeCheckViolation {
			return infra.NewRepoErr(infra.KindInsufficientFunds, "balance would go negative", err)
		}
		return infra.NewRepoErr(infra.KindDBFailure, "failed to apply ledger transaction", err)
	}
	return nil
}

func (s *LedgerStore) Balance(ctx context.Context, key ledger.AccountKey) (decimal.Decimal, error) {
	var balanceText string
	err := s.pool.QueryRow(ctx, `
		SELECT balance::text FROM ledger_accounts WHERE owner_id = $1 AND currency = $2`,
		key.OwnerID, key.Currency.String(),
	).Scan(&balanceText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, infra.NewRepoErr(infra.KindDBFailure, "failed to query balance", err)
	}

	balance, err := decimal.NewFromString(balanceText)
	if err != nil {
		return decimal.Zero, infra.NewRepoErr(infra.KindDBFailure, "failed to parse balance", err)
	}
	return balance, nil
}

func (s *LedgerStore) BalancesByOwner(ctx context.Context, ownerID uuid.UUID) (map[ledger.Currency]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT currency, balance::text FROM ledger_accounts WHERE owner_id = $1`,
		ownerID,
	)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query balances", err)
	}
	defer rows.Close()

	out := make(map[ledger.Currency]decimal.Decimal)
	for rows.Next() {
		var currency, balanceText string
		if err := rows.Scan(&currency, &balanceText); err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to scan balance row", err)
		}
		balance, err := decimal.NewFromString(balanceText)
		if err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to parse balance", err)
		}
		out[ledger.Currency(currency)] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to read balance rows", err)
	}
	return out, nil
}

// EnsureAccount seeds an opening balance for accounts handed over from the
// account subsystem. Existing accounts are left untouched.
func (s *LedgerStore) EnsureAccount(ctx context.Context, key ledger.AccountKey, opening decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (owner_id, currency, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, currency) DO NOTHING`,
		key.OwnerID, key.Currency.String(), opening.String(),
	)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to ensure account", err)
	}
	return nil
}
