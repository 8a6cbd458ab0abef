package queries

import (
	"context"
	"time"

	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"
	"slotlease/internal/pkg/clock"
	"slotlease/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLeaseNotFound = errs.New("lease not found")
	ErrInvalidSlot   = errs.New("invalid slot coordinate")
	ErrQueryFailed   = errs.New("lease query failed")
)

// LeaseView is the read model handed to the API layer. Active reflects lazy
// expiration: it is computed against the clock at query time, never stored.
type LeaseView struct {
	ID       uuid.UUID
	Product  slot.ProductKind
	OwnerID  uuid.UUID
	Index    int
	LesseeID uuid.UUID
	Start    time.Time
	End      time.Time
	Price    decimal.Decimal
	Currency string
	Regions  []string
	Active   bool
}

// LeaseReadStore is the query-side slice of the lease store.
type LeaseReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error)
	History(ctx context.Context, coord slot.Coordinate) ([]*lease.Lease, error)
	Overlapping(ctx context.Context, coord slot.Coordinate, window lease.Window) ([]*lease.Lease, error)
	ActiveByProduct(ctx context.Context, product slot.ProductKind, ownerID uuid.UUID, at time.Time) ([]*lease.Lease, error)
}

type LeaseQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*LeaseView, error)
	History(ctx context.Context, coord slot.Coordinate) ([]*LeaseView, error)
	Active(ctx context.Context, product slot.ProductKind, ownerID uuid.UUID) ([]*LeaseView, error)
	IsAvailable(ctx context.Context, coord slot.Coordinate, window lease.Window) (bool, error)
}

type leaseQueriesImpl struct {
	store LeaseReadStore
	clock clock.Clock
}

func NewLeaseQueries(store LeaseReadStore, clk clock.Clock) LeaseQueries {
	return &leaseQueriesImpl{store: store, clock: clk}
}

func (q *leaseQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*LeaseView, error) {
	l, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrLeaseNotFound
		}
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return q.toView(l), nil
}

func (q *leaseQueriesImpl) History(ctx context.Context, coord slot.Coordinate) ([]*LeaseView, error) {
	if err := slot.Validate(coord); err != nil {
		return nil, errs.Mark(err, ErrInvalidSlot)
	}
	leases, err := q.store.History(ctx, coord)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return q.toViews(leases), nil
}

func (q *leaseQueriesImpl) Active(ctx context.Context, product slot.ProductKind, ownerID uuid.UUID) ([]*LeaseView, error) {
	if !product.IsValid() {
		return nil, ErrInvalidSlot
	}
	leases, err := q.store.ActiveByProduct(ctx, product, ownerID, q.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return q.toViews(leases), nil
}

// IsAvailable is advisory: it serves render-time checks and pre-purchase
// UI. The purchase path re-evaluates availability itself, so a stale answer
// here can never double-book a slot.
func (q *leaseQueriesImpl) IsAvailable(ctx context.Context, coord slot.Coordinate, window lease.Window) (bool, error) {
	if err := slot.Validate(coord); err != nil {
		return false, errs.Mark(err, ErrInvalidSlot)
	}
	overlapping, err := q.store.Overlapping(ctx, coord, window)
	if err != nil {
		return false, errs.Mark(err, ErrQueryFailed)
	}
	return len(overlapping) == 0, nil
}

func (q *leaseQueriesImpl) toView(l *lease.Lease) *LeaseView {
	coord := l.Coordinate()
	return &LeaseView{
		ID:       l.ID(),
		Product:  coord.Product,
		OwnerID:  coord.OwnerID,
		Index:    coord.Index,
		LesseeID: l.LesseeID(),
		Start:    l.Window().Start(),
		End:      l.Window().End(),
		Price:    l.Price(),
		Currency: l.Currency().String(),
		Regions:  l.Regions(),
		Active:   l.ActiveAt(q.clock.Now()),
	}
}

func (q *leaseQueriesImpl) toViews(leases []*lease.Lease) []*LeaseView {
	views := make([]*LeaseView, len(leases))
	for i, l := range leases {
		views[i] = q.toView(l)
	}
	return views
}
