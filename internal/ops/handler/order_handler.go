package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keibalab/autobet/internal/domain"
)

// OrderReader is the handler's view of the order store.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.PurchaseOrder, error)
	GetByRaceID(ctx context.Context, raceID string) ([]*domain.PurchaseOrder, error)
}

// OrderHandler serves read-only order lookups for operators.
type OrderHandler struct {
	orders OrderReader
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders OrderReader) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetByID handles GET /api/orders/:id.
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// List handles GET /api/orders?user_id=…|race_id=… with pagination.
func (h *OrderHandler) List(c *gin.Context) {
	if raceID := c.Query("race_id"); raceID != "" {
		orders, err := h.orders.GetByRaceID(c.Request.Context(), raceID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id or race_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orders.GetByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
