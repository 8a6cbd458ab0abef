package response

import "slotlease/internal/usecase/queries"

type BalanceResponse struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

func FromBalanceViews(views []*queries.BalanceView) []*BalanceResponse {
	out := make([]*BalanceResponse, len(views))
	for i, v := range views {
		out[i] = &BalanceResponse{Currency: v.Currency, Balance: v.Balance.String()}
	}
	return out
}
