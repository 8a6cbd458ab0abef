package commands

import (
	"context"

	"slotlease/internal/domain/slot"
	"slotlease/internal/pkg/clock"
	"slotlease/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRateNotConfigurable = errs.New("product has no configurable rate")
	ErrNotSlotOwner        = errs.New("caller does not own this slot")
	ErrInvalidRate         = errs.New("invalid slot rate")
)

type RateCommands interface {
	SetRate(ctx context.Context, callerID uuid.UUID, coord slot.Coordinate, daily decimal.Decimal) error
}

type rateUseCaseImpl struct {
	leases LeaseStore
	rates  RateStore
	clock  clock.Clock
}

func NewRateCommands(leases LeaseStore, rates RateStore, clk clock.Clock) RateCommands {
	return &rateUseCaseImpl{
		leases: leases,
		rates:  rates,
		clock:  clk,
	}
}

// SetRate configures a slot's daily rate. Top-ad pricing is a platform rate
// card, not per-slot, so only favorite-user and suggested-follow slots have
// one. A rate may only change while the slot has no active lease; the buyer
// of a running lease paid against the rate in force when it started.
func (u *rateUseCaseImpl) SetRate(ctx context.Context, callerID uuid.UUID, coord slot.Coordinate, daily decimal.Decimal) error {
	if err := slot.Validate(coord); err != nil {
		return errs.Mark(err, ErrInvalidSlot)
	}
	if coord.Product == slot.ProductTopAd {
		return ErrRateNotConfigurable
	}
	if coord.Product.ProfileScoped() && coord.OwnerID != callerID {
		return ErrNotSlotOwner
	}
	if !daily.IsPositive() {
		return ErrInvalidRate
	}

	active, err := u.leases.ActiveAt(ctx, coord, u.clock.Now())
	if err != nil {
		return errs.Mark(err, ErrStorageFailure)
	}
	if active != nil {
		return ErrSlotRateLocked
	}

	if err := u.rates.Upsert(ctx, coord, daily); err != nil {
		return errs.Mark(err, ErrStorageFailure)
	}
	return nil
}
