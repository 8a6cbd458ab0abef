package api

import (
	"net/http"

	resdto "slotlease/internal/handler/dto/response"
	"slotlease/internal/handler/middleware"
	"slotlease/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type BalanceHandler struct {
	balanceQueries queries.BalanceQueries
}

func NewBalanceHandler(balanceQueries queries.BalanceQueries) *BalanceHandler {
	return &BalanceHandler{balanceQueries: balanceQueries}
}

// Own returns the caller's balances. Display only; the account subsystem
// owns deposits and withdrawals.
func (h *BalanceHandler) Own(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.balanceQueries.ByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBalanceViews(views))
}
