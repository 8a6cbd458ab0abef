package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidPricingInput = errors.New("invalid pricing input")

// WildcardRegion in a top-ad targeting set means every region at once and
// doubles the base price.
const WildcardRegion = "ALL"

// TopAdDuration is fixed for the product; buyers do not choose it.
const TopAdDuration = 24 * time.Hour

const MaxFavoriteDays = 30

// suggestedFollowTiers maps a selectable duration in days to its bulk-price
// multiplier. Anything else is out of the product's domain.
var suggestedFollowTiers = map[int]int64{
	1:  1,
	7:  6,
	30: 20,
}

func SuggestedFollowTierDays() []int {
	return []int{1, 7, 30}
}

func IsSuggestedFollowTier(days int) bool {
	_, ok := suggestedFollowTiers[days]
	return ok
}

// Engine computes lease prices. It is a pure function of its inputs; rates
// and targeting come from the caller, never from I/O.
type Engine struct {
	topAdBase decimal.Decimal
}

func NewEngine(topAdBase decimal.Decimal) *Engine {
	return &Engine{topAdBase: topAdBase}
}

// TopAd prices one 24h banner lease: base × 2 for the wildcard set, else
// base × max(1, regions/10), rounded to the nearest whole currency unit.
// Region breadth below ten states prices the same as one; that asymmetry is
// the product's published rate card.
func (e *Engine) TopAd(regions []string) (decimal.Decimal, error) {
	if len(regions) == 0 {
		return decimal.Zero, ErrInvalidPricingInput
	}

	multiplier := decimal.NewFromInt(int64(len(regions))).Div(decimal.NewFromInt(10))
	for _, r := range regions {
		if r == WildcardRegion {
			multiplier = decimal.NewFromInt(2)
			break
		}
	}
	if multiplier.LessThan(decimal.NewFromInt(1)) {
		multiplier = decimal.NewFromInt(1)
	}

	return e.topAdBase.Mul(multiplier).Round(0), nil
}

// FavoriteUser prices a profile slot at the owner's daily rate. Durations
// longer than MaxFavoriteDays are clamped; non-positive durations are
// rejected.
func (e *Engine) FavoriteUser(dailyRate decimal.Decimal, days int) (decimal.Decimal, error) {
	if days <= 0 {
		return decimal.Zero, ErrInvalidPricingInput
	}
	if dailyRate.IsNegative() {
		return decimal.Zero, ErrInvalidPricingInput
	}
	if days > MaxFavoriteDays {
		days = MaxFavoriteDays
	}
	return dailyRate.Mul(decimal.NewFromInt(int64(days))), nil
}

// SuggestedFollow prices a global follow slot in tokens using the tier
// multiplier table.
func (e *Engine) SuggestedFollow(dailyRate decimal.Decimal, tierDays int) (decimal.Decimal, error) {
	mult, ok := suggestedFollowTiers[tierDays]
	if !ok {
		return decimal.Zero, ErrInvalidPricingInput
	}
	if dailyRate.IsNegative() {
		return decimal.Zero, ErrInvalidPricingInput
	}
	return dailyRate.Mul(decimal.NewFromInt(mult)), nil
}

// SplitHalf divides an amount into the owner's half and the platform's
// remainder. The two always add back to the original so money is conserved
// even on odd cents.
func SplitHalf(total decimal.Decimal) (half, remainder decimal.Decimal) {
	half = total.Div(decimal.NewFromInt(2)).RoundFloor(2)
	remainder = total.Sub(half)
	return half, remainder
}
