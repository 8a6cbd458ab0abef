package queries

import (
	"context"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BalanceView struct {
	Currency string
	Balance  decimal.Decimal
}

type BalanceReadStore interface {
	BalancesByOwner(ctx context.Context, ownerID uuid.UUID) (map[ledger.Currency]decimal.Decimal, error)
}

type BalanceQueries interface {
	ByOwner(ctx context.Context, ownerID uuid.UUID) ([]*BalanceView, error)
}

type balanceQueriesImpl struct {
	store BalanceReadStore
}

func NewBalanceQueries(store BalanceReadStore) BalanceQueries {
	return &balanceQueriesImpl{store: store}
}

// ByOwner lists the owner's balances. Accounts the owner never touched are
// reported as zero rather than omitted, so display is stable across both
// currencies.
func (q *balanceQueriesImpl) ByOwner(ctx context.Context, ownerID uuid.UUID) ([]*BalanceView, error) {
	balances, err := q.store.BalancesByOwner(ctx, ownerID)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}

	views := make([]*BalanceView, 0, 2)
	for _, currency := range []ledger.Currency{ledger.CurrencyCoin, ledger.CurrencyToken} {
		balance, ok := balances[currency]
		if !ok {
			balance = decimal.Zero
		}
		views = append(views, &BalanceView{Currency: currency.String(), Balance: balance})
	}
	return views, nil
}
