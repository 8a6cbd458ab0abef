//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"
	"slotlease/internal/infra/memstore"
	"slotlease/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateFixture struct {
	fixture  *purchaseFixture
	commands commands.RateCommands
}

func newRateFixture(t *testing.T) *rateFixture {
	t.Helper()
	f := newPurchaseFixture(t)
	return &rateFixture{
		fixture:  f,
		commands: commands.NewRateCommands(f.leases, f.rates, f.clock),
	}
}

func TestSetRate(t *testing.T) {
	ctx := context.Background()

	t.Run("owner sets their favorite slot rate", func(t *testing.T) {
		f := newRateFixture(t)
		owner := uuid.New()
		coord := slot.Coordinate{Product: slot.ProductFavoriteUser, OwnerID: owner, Index: 0}

		err := f.commands.SetRate(ctx, owner, coord, decimal.NewFromInt(25))
		require.NoError(t, err)

		stored, err := f.fixture.rates.Find(ctx, coord)
		require.NoError(t, err)
		assert.True(t, stored.Equal(decimal.NewFromInt(25)))
	})

	t.Run("non-owner cannot touch a profile slot", func(t *testing.T) {
		f := newRateFixture(t)
		owner := uuid.New()
		coord := slot.Coordinate{Product: slot.ProductFavoriteUser, OwnerID: owner, Index: 0}

		err := f.commands.SetRate(ctx, uuid.New(), coord, decimal.NewFromInt(25))
		assert.ErrorIs(t, err, commands.ErrNotSlotOwner)
	})

	t.Run("top ad has no per-slot rate", func(t *testing.T) {
		f := newRateFixture(t)
		coord := slot.Coordinate{Product: slot.ProductTopAd, Index: 0}

		err := f.commands.SetRate(ctx, uuid.New(), coord, decimal.NewFromInt(25))
		assert.ErrorIs(t, err, commands.ErrRateNotConfigurable)
	})

	t.Run("non-positive rate rejected", func(t *testing.T) {
		f := newRateFixture(t)
		owner := uuid.New()
		coord := slot.Coordinate{Product: slot.ProductFavoriteUser, OwnerID: owner, Index: 0}

		assert.ErrorIs(t, f.commands.SetRate(ctx, owner, coord, decimal.Zero), commands.ErrInvalidRate)
		assert.ErrorIs(t, f.commands.SetRate(ctx, owner, coord, decimal.NewFromInt(-5)), commands.ErrInvalidRate)
	})

	t.Run("rate locked while a lease is running, free after expiry", func(t *testing.T) {
		f := newRateFixture(t)
		owner := uuid.New()
		buyer := uuid.New()
		f.fixture.fund(t, buyer, ledger.CurrencyCoin, 1000)

		params := commands.PurchaseParams{
			BuyerID: buyer,
			Product: slot.ProductFavoriteUser,
			OwnerID: owner,
			Index:   1,
			Days:    2,
		}
		_, err := f.fixture.commands.Purchase(ctx, params, uuid.New())
		require.NoError(t, err)

		coord := slot.Coordinate{Product: slot.ProductFavoriteUser, OwnerID: owner, Index: 1}
		err = f.commands.SetRate(ctx, owner, coord, decimal.NewFromInt(99))
		assert.ErrorIs(t, err, commands.ErrSlotRateLocked)

		// Expiry is a property of the clock, not of any background job.
		f.fixture.clock.Add(48 * time.Hour)
		err = f.commands.SetRate(ctx, owner, coord, decimal.NewFromInt(99))
		assert.NoError(t, err)
	})

	t.Run("sibling slot is not locked", func(t *testing.T) {
		f := newRateFixture(t)
		owner := uuid.New()
		buyer := uuid.New()
		f.fixture.fund(t, buyer, ledger.CurrencyCoin, 1000)

		params := commands.PurchaseParams{
			BuyerID: buyer,
			Product: slot.ProductFavoriteUser,
			OwnerID: owner,
			Index:   0,
			Days:    2,
		}
		_, err := f.fixture.commands.Purchase(ctx, params, uuid.New())
		require.NoError(t, err)

		other := slot.Coordinate{Product: slot.ProductFavoriteUser, OwnerID: owner, Index: 1}
		assert.NoError(t, f.commands.SetRate(ctx, owner, other, decimal.NewFromInt(99)))
	})

	t.Run("invalid coordinate", func(t *testing.T) {
		f := newRateFixture(t)
		coord := slot.Coordinate{Product: slot.ProductSuggestedFollow, Index: 7}
		err := f.commands.SetRate(ctx, uuid.New(), coord, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, commands.ErrInvalidSlot)
	})
}

// The unset-rate path is exercised through the store directly: Find on a
// fresh store must report NOT_FOUND so the purchase path falls back to the
// platform default.
func TestRateStoreFallbackContract(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewRateStore()
	coord := slot.Coordinate{Product: slot.ProductSuggestedFollow, Index: 0}

	_, err := store.Find(ctx, coord)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
