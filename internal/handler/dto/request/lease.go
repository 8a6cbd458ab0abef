package request

import (
	"time"

	"slotlease/internal/usecase/commands"

	"github.com/google/uuid"
)

type PurchaseLeaseRequest struct {
	Product  string     `json:"product" binding:"required"`
	OwnerID  *uuid.UUID `json:"owner_id,omitempty"`
	Index    int        `json:"index"`
	Start    *time.Time `json:"start,omitempty"`
	Days     int        `json:"days,omitempty"`
	TierDays int        `json:"tier_days,omitempty"`
	Regions  []string   `json:"regions,omitempty"`
}

func (r PurchaseLeaseRequest) ToParams(buyerID uuid.UUID) commands.PurchaseParams {
	ownerID := uuid.Nil
	if r.OwnerID != nil {
		ownerID = *r.OwnerID
	}
	return commands.PurchaseParams{
		BuyerID:  buyerID,
		Product:  productKind(r.Product),
		OwnerID:  ownerID,
		Index:    r.Index,
		Start:    r.Start,
		Days:     r.Days,
		TierDays: r.TierDays,
		Regions:  r.Regions,
	}
}

type RenewLeaseRequest struct {
	Days     int      `json:"days,omitempty"`
	TierDays int      `json:"tier_days,omitempty"`
	Regions  []string `json:"regions,omitempty"`
}

func (r RenewLeaseRequest) ToParams(buyerID uuid.UUID) commands.PurchaseParams {
	return commands.PurchaseParams{
		BuyerID:  buyerID,
		Days:     r.Days,
		TierDays: r.TierDays,
		Regions:  r.Regions,
	}
}
