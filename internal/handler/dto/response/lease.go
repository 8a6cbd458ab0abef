package response

import (
	"time"

	"slotlease/internal/usecase/queries"

	"github.com/google/uuid"
)

type LeaseResponse struct {
	ID         uuid.UUID  `json:"id"`
	Product    string     `json:"product"`
	OwnerID    *uuid.UUID `json:"owner_id,omitempty"`
	Index      int        `json:"index"`
	LesseeID   uuid.UUID  `json:"lessee_id"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Price      string     `json:"price"`
	Currency   string     `json:"currency"`
	Regions    []string   `json:"regions,omitempty"`
	Active     bool       `json:"active"`
	IsReplayed bool       `json:"is_replayed,omitempty"`
}

func FromLeaseView(view *queries.LeaseView) *LeaseResponse {
	var ownerID *uuid.UUID
	if view.OwnerID != uuid.Nil {
		id := view.OwnerID
		ownerID = &id
	}
	return &LeaseResponse{
		ID:       view.ID,
		Product:  view.Product.String(),
		OwnerID:  ownerID,
		Index:    view.Index,
		LesseeID: view.LesseeID,
		Start:    view.Start,
		End:      view.End,
		Price:    view.Price.String(),
		Currency: view.Currency,
		Regions:  view.Regions,
		Active:   view.Active,
	}
}

func FromLeaseViews(views []*queries.LeaseView) []*LeaseResponse {
	out := make([]*LeaseResponse, len(views))
	for i, v := range views {
		out[i] = FromLeaseView(v)
	}
	return out
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}
