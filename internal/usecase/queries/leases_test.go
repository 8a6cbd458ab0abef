//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/slot"
	"slotlease/internal/infra/memstore"
	"slotlease/internal/pkg/clock"
	"slotlease/internal/usecase/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedLease(t *testing.T, store *memstore.LeaseStore, coord slot.Coordinate, start, end time.Time) *lease.Lease {
	t.Helper()
	window, err := lease.NewWindow(start, end)
	require.NoError(t, err)

	var regions []string
	currency := ledger.CurrencyCoin
	if coord.Product == slot.ProductTopAd {
		regions = []string{"ALL"}
	}
	if coord.Product == slot.ProductSuggestedFollow {
		currency = ledger.CurrencyToken
	}

	l, err := lease.NewLease(coord, uuid.New(), window, decimal.NewFromInt(500), currency, regions)
	require.NoError(t, err)
	require.NoError(t, store.Commit(context.Background(), l))
	return l
}

func TestLeaseQueries(t *testing.T) {
	ctx := context.Background()
	coord := slot.Coordinate{Product: slot.ProductTopAd, Index: 0}

	t.Run("GetByID marks running leases active", func(t *testing.T) {
		store := memstore.NewLeaseStore()
		clk := clock.NewMockClock(queryNow)
		q := queries.NewLeaseQueries(store, clk)

		l := seedLease(t, store, coord, queryNow.Add(-time.Hour), queryNow.Add(23*time.Hour))

		view, err := q.GetByID(ctx, l.ID())
		require.NoError(t, err)

		expected := &queries.LeaseView{
			ID:       l.ID(),
			Product:  slot.ProductTopAd,
			OwnerID:  uuid.Nil,
			Index:    0,
			LesseeID: l.LesseeID(),
			Start:    l.Window().Start(),
			End:      l.Window().End(),
			Price:    l.Price(),
			Currency: "coin",
			Regions:  []string{"ALL"},
			Active:   true,
		}
		if diff := cmp.Diff(expected, view, cmpopts.IgnoreFields(queries.LeaseView{}, "Price")); diff != "" {
			t.Errorf("LeaseView mismatch (-want +got):\n%s", diff)
		}
		assert.True(t, view.Price.Equal(l.Price()))

		// Expiration is pure clock comparison.
		clk.Add(24 * time.Hour)
		view, err = q.GetByID(ctx, l.ID())
		require.NoError(t, err)
		assert.False(t, view.Active)
	})

	t.Run("GetByID unknown id", func(t *testing.T) {
		q := queries.NewLeaseQueries(memstore.NewLeaseStore(), clock.NewMockClock(queryNow))
		_, err := q.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, queries.ErrLeaseNotFound)
	})

	t.Run("History returns expired and future leases alike", func(t *testing.T) {
		store := memstore.NewLeaseStore()
		q := queries.NewLeaseQueries(store, clock.NewMockClock(queryNow))

		day := 24 * time.Hour
		seedLease(t, store, coord, queryNow.Add(-3*day), queryNow.Add(-2*day))
		seedLease(t, store, coord, queryNow.Add(-time.Hour), queryNow.Add(23*time.Hour))
		seedLease(t, store, coord, queryNow.Add(2*day), queryNow.Add(3*day))

		views, err := q.History(ctx, coord)
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.False(t, views[0].Active)
		assert.True(t, views[1].Active)
		assert.False(t, views[2].Active)
	})

	t.Run("Active filters by product and owner", func(t *testing.T) {
		store := memstore.NewLeaseStore()
		q := queries.NewLeaseQueries(store, clock.NewMockClock(queryNow))
		owner := uuid.New()

		favorite := slot.Coordinate{Product: slot.ProductFavoriteUser, OwnerID: owner, Index: 0}
		seedLease(t, store, favorite, queryNow.Add(-time.Hour), queryNow.Add(time.Hour))
		seedLease(t, store, coord, queryNow.Add(-time.Hour), queryNow.Add(time.Hour))

		views, err := q.Active(ctx, slot.ProductFavoriteUser, owner)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, owner, views[0].OwnerID)

		views, err = q.Active(ctx, slot.ProductFavoriteUser, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("IsAvailable honors half-open windows", func(t *testing.T) {
		store := memstore.NewLeaseStore()
		q := queries.NewLeaseQueries(store, clock.NewMockClock(queryNow))

		l := seedLease(t, store, coord, queryNow, queryNow.Add(24*time.Hour))

		overlapping, err := lease.NewWindow(queryNow.Add(12*time.Hour), queryNow.Add(36*time.Hour))
		require.NoError(t, err)
		available, err := q.IsAvailable(ctx, coord, overlapping)
		require.NoError(t, err)
		assert.False(t, available)

		backToBack, err := lease.NewWindow(l.Window().End(), l.Window().End().Add(24*time.Hour))
		require.NoError(t, err)
		available, err = q.IsAvailable(ctx, coord, backToBack)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("invalid coordinates rejected", func(t *testing.T) {
		q := queries.NewLeaseQueries(memstore.NewLeaseStore(), clock.NewMockClock(queryNow))

		bad := slot.Coordinate{Product: slot.ProductTopAd, Index: 99}
		_, err := q.History(ctx, bad)
		assert.ErrorIs(t, err, queries.ErrInvalidSlot)

		window, werr := lease.NewWindow(queryNow, queryNow.Add(time.Hour))
		require.NoError(t, werr)
		_, err = q.IsAvailable(ctx, bad, window)
		assert.ErrorIs(t, err, queries.ErrInvalidSlot)

		_, err = q.Active(ctx, slot.ProductKind("banner"), uuid.Nil)
		assert.ErrorIs(t, err, queries.ErrInvalidSlot)
	})
}

func TestBalanceQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("untouched currencies report zero", func(t *testing.T) {
		store := memstore.NewLedgerStore()
		q := queries.NewBalanceQueries(store)
		owner := uuid.New()

		key := ledger.AccountKey{OwnerID: owner, Currency: ledger.CurrencyCoin}
		require.NoError(t, store.EnsureAccount(ctx, key, decimal.NewFromInt(250)))

		views, err := q.ByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "coin", views[0].Currency)
		assert.True(t, views[0].Balance.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, "token", views[1].Currency)
		assert.True(t, views[1].Balance.IsZero())
	})
}
