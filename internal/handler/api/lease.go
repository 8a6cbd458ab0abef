package api

import (
	"errors"
	"net/http"

	reqdto "slotlease/internal/handler/dto/request"
	resdto "slotlease/internal/handler/dto/response"
	"slotlease/internal/handler/middleware"
	"slotlease/internal/usecase/commands"
	"slotlease/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LeaseHandler struct {
	purchases    commands.PurchaseCommands
	leaseQueries queries.LeaseQueries
}

func NewLeaseHandler(purchases commands.PurchaseCommands, leaseQueries queries.LeaseQueries) *LeaseHandler {
	return &LeaseHandler{
		purchases:    purchases,
		leaseQueries: leaseQueries,
	}
}

func (h *LeaseHandler) Purchase(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req reqdto.PurchaseLeaseRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.purchases.Purchase(c.Request.Context(), req.ToParams(buyerID), idempotencyKey)
	if err != nil {
		h.respondPurchaseError(c, err)
		return
	}

	h.respondPurchased(c, result)
}

func (h *LeaseHandler) Renew(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	previousID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lease ID format"})
		return
	}

	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req reqdto.RenewLeaseRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.purchases.Renew(c.Request.Context(), previousID, req.ToParams(buyerID), idempotencyKey)
	if err != nil {
		h.respondPurchaseError(c, err)
		return
	}

	h.respondPurchased(c, result)
}

func (h *LeaseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lease ID format"})
		return
	}

	view, err := h.leaseQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrLeaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lease not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromLeaseView(view))
}

func (h *LeaseHandler) respondPurchased(c *gin.Context, result *commands.PurchaseResult) {
	view, err := h.leaseQueries.GetByID(c.Request.Context(), result.Lease.ID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := resdto.FromLeaseView(view)
	resp.IsReplayed = result.IsReplayed
	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (h *LeaseHandler) respondPurchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot coordinate"})
	case errors.Is(err, commands.ErrInvalidWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lease window"})
	case errors.Is(err, commands.ErrInvalidPricingInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid duration, tier, or targeting"})
	case errors.Is(err, commands.ErrSlotConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Slot is already leased for this window"})
	case errors.Is(err, commands.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, commands.ErrLeaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Lease not found"})
	case errors.Is(err, commands.ErrDuplicatePurchase):
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate purchase request with different parameters"})
	case errors.Is(err, commands.ErrIdempotencyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Purchase request is currently being processed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errors.New("idempotency key required")
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}
