package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/pricing"
	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"
	"slotlease/internal/pkg/clock"
	"slotlease/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSlot            = errs.New("invalid slot coordinate")
	ErrSlotConflict           = errs.New("slot conflict")
	ErrInsufficientFunds      = errs.New("insufficient funds")
	ErrSlotRateLocked         = errs.New("slot rate locked")
	ErrInvalidPricingInput    = errs.New("invalid pricing input")
	ErrInvalidWindow          = errs.New("invalid lease window")
	ErrLeaseNotFound          = errs.New("lease not found")
	ErrDuplicatePurchase      = errs.New("duplicate purchase request with different parameters")
	ErrIdempotencyInProgress  = errs.New("purchase already in progress")
	ErrIdempotencyCheckFailed = errs.New("idempotency check failed")
	ErrUnbalancedTransaction  = errs.New("unbalanced ledger transaction")
	ErrStorageFailure         = errs.New("storage operation failed")
)

const purchaseEndpoint = "POST /leases"

// PurchaseParams is the transient lease request. It is consumed by one
// Purchase call and never persisted.
type PurchaseParams struct {
	BuyerID  uuid.UUID
	Product  slot.ProductKind
	OwnerID  uuid.UUID
	Index    int
	Start    *time.Time // defaults to now
	Days     int        // favorite-user leases
	TierDays int        // suggested-follow leases
	Regions  []string   // top-ad leases
}

type PurchaseResult struct {
	Lease      *lease.Lease
	IsReplayed bool
}

type PurchaseCommands interface {
	Purchase(ctx context.Context, params PurchaseParams, idempotencyKey uuid.UUID) (*PurchaseResult, error)
	Renew(ctx context.Context, previousID uuid.UUID, params PurchaseParams, idempotencyKey uuid.UUID) (*PurchaseResult, error)
}

type purchaseUseCaseImpl struct {
	leases        LeaseStore
	ledgers       LedgerStore
	rates         RateStore
	notifications NotificationStore
	idempotency   IdempotencyStore
	engine        *pricing.Engine
	defaultRates  DefaultRates
	clock         clock.Clock
	retention     time.Duration
}

// DefaultRates are the platform fallbacks for slots whose rate was never
// configured.
type DefaultRates struct {
	FavoriteDaily  decimal.Decimal
	SuggestedDaily decimal.Decimal
}

func NewPurchaseCommands(
	leases LeaseStore,
	ledgers LedgerStore,
	rates RateStore,
	notifications NotificationStore,
	idempotency IdempotencyStore,
	engine *pricing.Engine,
	defaultRates DefaultRates,
	clk clock.Clock,
	idempotencyRetention time.Duration,
) PurchaseCommands {
	return &purchaseUseCaseImpl{
		leases:        leases,
		ledgers:       ledgers,
		rates:         rates,
		notifications: notifications,
		idempotency:   idempotency,
		engine:        engine,
		defaultRates:  defaultRates,
		clock:         clk,
		retention:     idempotencyRetention,
	}
}

func (u *purchaseUseCaseImpl) Purchase(ctx context.Context, params PurchaseParams, idempotencyKey uuid.UUID) (*PurchaseResult, error) {
	requestHash := hashParams(params)

	replayed, err := u.handleIdempotency(ctx, idempotencyKey, params.BuyerID, requestHash)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &PurchaseResult{Lease: replayed, IsReplayed: true}, nil
	}

	committed, err := u.execute(ctx, params)
	if err != nil {
		return nil, err
	}

	if markErr := u.idempotency.MarkCompleted(ctx, idempotencyKey, params.BuyerID, committed.ID()); markErr != nil {
		slog.Warn("failed to mark idempotency record completed",
			"key", idempotencyKey, "lease_id", committed.ID(), "error", markErr.Error())
	}

	return &PurchaseResult{Lease: committed, IsReplayed: false}, nil
}

// Renew is a purchase whose window starts the instant the previous lease
// ends, or now if that is already past. Back-to-back windows do not overlap,
// so an unexpired lease can be extended without a gap.
func (u *purchaseUseCaseImpl) Renew(ctx context.Context, previousID uuid.UUID, params PurchaseParams, idempotencyKey uuid.UUID) (*PurchaseResult, error) {
	previous, err := u.leases.FindByID(ctx, previousID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrLeaseNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	coord := previous.Coordinate()
	params.Product = coord.Product
	params.OwnerID = coord.OwnerID
	params.Index = coord.Index
	if len(params.Regions) == 0 {
		params.Regions = previous.Regions()
	}

	start := previous.Window().End()
	if now := u.clock.Now(); now.After(start) {
		start = now
	}
	params.Start = &start

	return u.Purchase(ctx, params, idempotencyKey)
}

// execute runs the purchase state machine: validate the coordinate, re-check
// availability, compute the price, move the funds, then commit the lease.
// Any failure exits with nothing persisted; a lost commit race reverses the
// already-applied ledger transaction before returning.
func (u *purchaseUseCaseImpl) execute(ctx context.Context, params PurchaseParams) (*lease.Lease, error) {
	coord, err := slot.NewCoordinate(params.Product, params.OwnerID, params.Index)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidSlot)
	}

	now := u.clock.Now()
	window, err := u.resolveWindow(coord, params, now)
	if err != nil {
		return nil, err
	}

	price, currency, err := u.quote(ctx, coord, params)
	if err != nil {
		return nil, err
	}

	// Availability re-check inside the purchase itself, not only at render
	// time. The commit below still decides races; this check keeps the
	// common-path failure cheap and fund-movement free.
	overlapping, err := u.leases.Overlapping(ctx, coord, window)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	if len(overlapping) > 0 {
		return nil, ErrSlotConflict
	}

	ledgerTx, err := u.buildLedgerTx(coord, params.BuyerID, price, currency)
	if err != nil {
		// An unbalanced batch is a defect in this code, never user input.
		return nil, errs.Mark(err, ErrUnbalancedTransaction)
	}

	if err := u.ledgers.Apply(ctx, ledgerTx); err != nil {
		if infra.IsKind(err, infra.KindInsufficientFunds) {
			return nil, ErrInsufficientFunds
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	committed, err := lease.NewLease(coord, params.BuyerID, window, price, currency, params.Regions)
	if err != nil {
		u.reverse(ctx, ledgerTx)
		return nil, errs.Mark(err, ErrInvalidSlot)
	}

	if err := u.leases.Commit(ctx, committed); err != nil {
		// A concurrent committer won between the availability check and
		// here. The debit already applied, so compensate before failing.
		u.reverse(ctx, ledgerTx)
		if infra.IsKind(err, infra.KindConflict) {
			return nil, ErrSlotConflict
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	u.notifyCommitted(ctx, committed)

	return committed, nil
}

func (u *purchaseUseCaseImpl) resolveWindow(coord slot.Coordinate, params PurchaseParams, now time.Time) (lease.Window, error) {
	start := now
	if params.Start != nil {
		if params.Start.Before(now) {
			return lease.Window{}, ErrInvalidWindow
		}
		start = *params.Start
	}

	var duration time.Duration
	switch coord.Product {
	case slot.ProductTopAd:
		duration = pricing.TopAdDuration
	case slot.ProductFavoriteUser:
		days := params.Days
		if days <= 0 {
			return lease.Window{}, ErrInvalidPricingInput
		}
		if days > pricing.MaxFavoriteDays {
			days = pricing.MaxFavoriteDays
		}
		duration = time.Duration(days) * 24 * time.Hour
	case slot.ProductSuggestedFollow:
		if !pricing.IsSuggestedFollowTier(params.TierDays) {
			return lease.Window{}, ErrInvalidPricingInput
		}
		duration = time.Duration(params.TierDays) * 24 * time.Hour
	default:
		return lease.Window{}, ErrInvalidSlot
	}

	window, err := lease.NewWindow(start, start.Add(duration))
	if err != nil {
		return lease.Window{}, errs.Mark(err, ErrInvalidWindow)
	}
	return window, nil
}

func (u *purchaseUseCaseImpl) quote(ctx context.Context, coord slot.Coordinate, params PurchaseParams) (decimal.Decimal, ledger.Currency, error) {
	switch coord.Product {
	case slot.ProductTopAd:
		price, err := u.engine.TopAd(params.Regions)
		if err != nil {
			return decimal.Zero, "", errs.Mark(err, ErrInvalidPricingInput)
		}
		return price, ledger.CurrencyCoin, nil

	case slot.ProductFavoriteUser:
		rate, err := u.dailyRate(ctx, coord, u.defaultRates.FavoriteDaily)
		if err != nil {
			return decimal.Zero, "", err
		}
		price, err := u.engine.FavoriteUser(rate, params.Days)
		if err != nil {
			return decimal.Zero, "", errs.Mark(err, ErrInvalidPricingInput)
		}
		return price, ledger.CurrencyCoin, nil

	case slot.ProductSuggestedFollow:
		rate, err := u.dailyRate(ctx, coord, u.defaultRates.SuggestedDaily)
		if err != nil {
			return decimal.Zero, "", err
		}
		price, err := u.engine.SuggestedFollow(rate, params.TierDays)
		if err != nil {
			return decimal.Zero, "", errs.Mark(err, ErrInvalidPricingInput)
		}
		return price, ledger.CurrencyToken, nil
	}
	return decimal.Zero, "", ErrInvalidSlot
}

func (u *purchaseUseCaseImpl) dailyRate(ctx context.Context, coord slot.Coordinate, fallback decimal.Decimal) (decimal.Decimal, error) {
	rate, err := u.rates.Find(ctx, coord)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return fallback, nil
		}
		return decimal.Zero, errs.Mark(err, ErrStorageFailure)
	}
	return rate, nil
}

// buildLedgerTx assembles the balanced batch for one purchase: the buyer's
// debit against the credits to the slot owner and treasury. Favorite-user
// revenue splits half to the profile owner; everything else is platform
// revenue in full.
func (u *purchaseUseCaseImpl) buildLedgerTx(coord slot.Coordinate, buyerID uuid.UUID, price decimal.Decimal, currency ledger.Currency) (ledger.Transaction, error) {
	buyer := ledger.AccountKey{OwnerID: buyerID, Currency: currency}
	treasury := ledger.TreasuryAccount(currency)

	if coord.Product == slot.ProductFavoriteUser {
		ownerShare, platformShare := pricing.SplitHalf(price)
		owner := ledger.AccountKey{OwnerID: coord.OwnerID, Currency: currency}
		return ledger.NewTransaction("lease_purchase",
			ledger.Entry{Account: buyer, Delta: price.Neg()},
			ledger.Entry{Account: owner, Delta: ownerShare},
			ledger.Entry{Account: treasury, Delta: platformShare},
		)
	}

	return ledger.NewTransaction("lease_purchase",
		ledger.Entry{Account: buyer, Delta: price.Neg()},
		ledger.Entry{Account: treasury, Delta: price},
	)
}

func (u *purchaseUseCaseImpl) reverse(ctx context.Context, applied ledger.Transaction) {
	if err := u.ledgers.Apply(ctx, applied.Reversed()); err != nil {
		// This must not happen: the reversal restores balances the original
		// transaction just debited. Surface loudly for the operator.
		slog.Error("ledger reversal failed, balances are inconsistent",
			"transaction_id", applied.ID, "error", err.Error())
	}
}

func (u *purchaseUseCaseImpl) notifyCommitted(ctx context.Context, l *lease.Lease) {
	payload, err := json.Marshal(map[string]any{
		"type":   "lease_committed",
		"slot":   l.Coordinate().String(),
		"lessee": l.LesseeID(),
		"amount": l.Price(),
	})
	if err != nil {
		slog.Warn("failed to encode lease_committed event", "lease_id", l.ID(), "error", err.Error())
		return
	}

	if err := u.notifications.CreateJob(ctx, "event", "lease_committed", payload, u.clock.Now()); err != nil {
		slog.Warn("failed to queue lease_committed event", "lease_id", l.ID(), "error", err.Error())
	}
}

func (u *purchaseUseCaseImpl) handleIdempotency(ctx context.Context, key, buyerID uuid.UUID, requestHash string) (*lease.Lease, error) {
	expiresAt := u.clock.Now().Add(u.retention)

	inserted, err := u.idempotency.TryInsert(ctx, key, buyerID, purchaseEndpoint, requestHash, expiresAt)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if inserted {
		return nil, nil
	}

	existing, err := u.idempotency.Get(ctx, key, buyerID)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if existing.RequestHash != requestHash {
		return nil, ErrDuplicatePurchase
	}

	switch existing.Status {
	case "completed":
		if existing.ResultLeaseID == nil {
			return nil, errs.New("completed purchase missing result lease id")
		}
		replayed, err := u.leases.FindByID(ctx, *existing.ResultLeaseID)
		if err != nil {
			return nil, errs.Mark(err, ErrStorageFailure)
		}
		return replayed, nil

	case "processing":
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func hashParams(params PurchaseParams) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
