package request

import (
	"slotlease/internal/domain/slot"

	"github.com/shopspring/decimal"
)

type SetRateRequest struct {
	DailyRate decimal.Decimal `json:"daily_rate" binding:"required"`
}

// productKind maps the URL segment to a product; validity is checked by the
// slot registry downstream.
func productKind(s string) slot.ProductKind {
	return slot.ProductKind(s)
}
