package lease

import (
	"errors"
	"time"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/slot"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice     = errors.New("lease price cannot be negative")
	ErrInvalidCurrency   = errors.New("invalid lease currency")
	ErrRegionsNotAllowed = errors.New("targeting regions only apply to top-ad leases")
	ErrRegionsRequired   = errors.New("top-ad lease requires targeting regions")
)

// Lease is a committed, immutable grant of one slot to one lessee for one
// window. Renewal creates a new lease; expiry is implicit once now >= End.
type Lease struct {
	id        uuid.UUID
	coord     slot.Coordinate
	lesseeID  uuid.UUID
	window    Window
	price     decimal.Decimal
	currency  ledger.Currency
	regions   []string
	createdAt time.Time
}

func NewLease(
	coord slot.Coordinate,
	lesseeID uuid.UUID,
	window Window,
	price decimal.Decimal,
	currency ledger.Currency,
	regions []string,
) (*Lease, error) {
	if err := slot.Validate(coord); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if !currency.IsValid() {
		return nil, ErrInvalidCurrency
	}
	if coord.Product == slot.ProductTopAd {
		if len(regions) == 0 {
			return nil, ErrRegionsRequired
		}
	} else if len(regions) > 0 {
		return nil, ErrRegionsNotAllowed
	}

	return &Lease{
		id:       uuid.New(),
		coord:    coord,
		lesseeID: lesseeID,
		window:   window,
		price:    price,
		currency: currency,
		regions:  regions,
	}, nil
}

func Reconstruct(
	id uuid.UUID,
	coord slot.Coordinate,
	lesseeID uuid.UUID,
	window Window,
	price decimal.Decimal,
	currency ledger.Currency,
	regions []string,
	createdAt time.Time,
) *Lease {
	return &Lease{
		id:        id,
		coord:     coord,
		lesseeID:  lesseeID,
		window:    window,
		price:     price,
		currency:  currency,
		regions:   regions,
		createdAt: createdAt,
	}
}

func (l *Lease) ActiveAt(now time.Time) bool {
	return l.window.Contains(now)
}

func (l *Lease) ExpiredAt(now time.Time) bool {
	return !now.Before(l.window.End())
}

func (l *Lease) ID() uuid.UUID             { return l.id }
func (l *Lease) Coordinate() slot.Coordinate { return l.coord }
func (l *Lease) LesseeID() uuid.UUID       { return l.lesseeID }
func (l *Lease) Window() Window            { return l.window }
func (l *Lease) Price() decimal.Decimal    { return l.price }
func (l *Lease) Currency() ledger.Currency { return l.currency }
func (l *Lease) Regions() []string         { return l.regions }
func (l *Lease) CreatedAt() time.Time      { return l.createdAt }
