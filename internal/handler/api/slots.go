package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/slot"
	reqdto "slotlease/internal/handler/dto/request"
	resdto "slotlease/internal/handler/dto/response"
	"slotlease/internal/handler/middleware"
	"slotlease/internal/usecase/commands"
	"slotlease/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SlotHandler struct {
	rates        commands.RateCommands
	leaseQueries queries.LeaseQueries
}

func NewSlotHandler(rates commands.RateCommands, leaseQueries queries.LeaseQueries) *SlotHandler {
	return &SlotHandler{
		rates:        rates,
		leaseQueries: leaseQueries,
	}
}

// Availability answers the render-time "is this slot free for this window"
// question. It is advisory only; the purchase path re-checks.
func (h *SlotHandler) Availability(c *gin.Context) {
	coord, ok := h.coordFromQuery(c)
	if !ok {
		return
	}

	window, ok := h.windowFromQuery(c)
	if !ok {
		return
	}

	available, err := h.leaseQueries.IsAvailable(c.Request.Context(), coord, window)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.AvailabilityResponse{Available: available})
}

func (h *SlotHandler) History(c *gin.Context) {
	coord, ok := h.coordFromQuery(c)
	if !ok {
		return
	}

	views, err := h.leaseQueries.History(c.Request.Context(), coord)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLeaseViews(views))
}

// Active lists a product's currently running leases for the rendering
// layer; expired leases simply stop appearing here.
func (h *SlotHandler) Active(c *gin.Context) {
	product, ok := slot.NewProductKind(c.Param("product"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown product"})
		return
	}

	ownerID, ok := h.ownerFromQuery(c, product)
	if !ok {
		return
	}

	views, err := h.leaseQueries.Active(c.Request.Context(), product, ownerID)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLeaseViews(views))
}

// SetRate configures a slot's daily rate. Favorite-user slots belong to the
// caller's own profile; suggested-follow slots are global and reachable only
// through the admin route.
func (h *SlotHandler) SetRate(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	product, ok := slot.NewProductKind(c.Param("product"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown product"})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot index"})
		return
	}

	var req reqdto.SetRateRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// Global rate cards (suggested-follow) are platform policy, not
	// something any user can rewrite.
	ownerID := uuid.Nil
	if product.ProfileScoped() {
		ownerID = callerID
	} else if role, _ := middleware.GetUserRole(c); role != middleware.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin role required to set a global rate"})
		return
	}
	coord := slot.Coordinate{Product: product, OwnerID: ownerID, Index: index}

	if err := h.rates.SetRate(c.Request.Context(), callerID, coord, req.DailyRate); err != nil {
		h.respondRateError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SlotHandler) respondRateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot coordinate"})
	case errors.Is(err, commands.ErrRateNotConfigurable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product has no configurable rate"})
	case errors.Is(err, commands.ErrNotSlotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the owner of this slot"})
	case errors.Is(err, commands.ErrInvalidRate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rate must be positive"})
	case errors.Is(err, commands.ErrSlotRateLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "Slot has an active lease; rate is locked until it expires"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *SlotHandler) respondQueryError(c *gin.Context, err error) {
	if errors.Is(err, queries.ErrInvalidSlot) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot coordinate"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *SlotHandler) coordFromQuery(c *gin.Context) (slot.Coordinate, bool) {
	product, ok := slot.NewProductKind(c.Param("product"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown product"})
		return slot.Coordinate{}, false
	}

	index, err := strconv.Atoi(c.Query("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot index"})
		return slot.Coordinate{}, false
	}

	ownerID, ok := h.ownerFromQuery(c, product)
	if !ok {
		return slot.Coordinate{}, false
	}

	return slot.Coordinate{Product: product, OwnerID: ownerID, Index: index}, true
}

func (h *SlotHandler) ownerFromQuery(c *gin.Context, product slot.ProductKind) (uuid.UUID, bool) {
	ownerStr := c.Query("owner_id")
	if ownerStr == "" {
		if product.ProfileScoped() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required for this product"})
			return uuid.Nil, false
		}
		return uuid.Nil, true
	}

	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner_id format"})
		return uuid.Nil, false
	}
	return ownerID, true
}

func (h *SlotHandler) windowFromQuery(c *gin.Context) (lease.Window, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
		return lease.Window{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time"})
		return lease.Window{}, false
	}

	window, err := lease.NewWindow(start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window"})
		return lease.Window{}, false
	}
	return window, true
}
