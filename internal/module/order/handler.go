package order

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/shared/response"
	apperrors "github.com/storefront/server/internal/utils/errors"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	service *Service
}

// NewHandler creates a new order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers order routes. Payment confirmation is not exposed;
// orders only become PAID through payment reconciliation.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/items", h.ReplaceItems)
		orders.POST("/:id/prepare", h.transition(h.service.StartPreparing))
		orders.POST("/:id/ready", h.transition(h.service.MarkReady))
		orders.POST("/:id/complete", h.transition(h.service.Complete))
		orders.POST("/:id/cancel", h.transition(h.service.Cancel))
	}
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), CreateOrderInput{
		StoreID:    req.StoreID,
		CustomerID: req.CustomerID,
		Items:      toLineInputs(req.Items),
	})
	if err != nil {
		handleOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, OrderToResponse(order))
}

// GetOrder handles GET /orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		handleOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, OrderToResponse(order))
}

// ReplaceItems handles PUT /orders/:id/items.
func (h *Handler) ReplaceItems(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req ReplaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	order, err := h.service.ReplaceItems(c.Request.Context(), ReplaceItemsInput{
		OrderID: orderID,
		Items:   toLineInputs(req.Items),
	})
	if err != nil {
		handleOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, OrderToResponse(order))
}

func (h *Handler) transition(apply func(context.Context, uuid.UUID) (*domain.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := apply(c.Request.Context(), orderID)
		if err != nil {
			handleOrderError(c, err)
			return
		}

		c.JSON(http.StatusOK, OrderToResponse(order))
	}
}

// --- Helpers ---

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid order ID"))
		return uuid.Nil, false
	}
	return orderID, true
}

var orderErrorMappings = []response.ErrorMapping{
	{Err: ErrOrderNotFound, New: apperrors.NotFound, Arg: "order"},
	{Err: ErrItemNotFound, New: apperrors.ValidationError},
	{Err: ErrItemNotOrderable, New: apperrors.ValidationError},
	{Err: ErrItemWrongStore, New: apperrors.ValidationError},
	{Err: ErrOrderChanged, New: apperrors.Conflict},
	{Err: ErrOrderCodeTaken, New: apperrors.Conflict},
	{Err: domain.ErrItemsLocked, New: apperrors.Conflict},
	{Err: ErrPaymentInFlight, New: apperrors.Conflict},
	{Err: domain.ErrInvalidTransition, New: apperrors.Conflict},
	{Err: domain.ErrEmptyItems, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidQuantity, New: apperrors.ValidationError},
	{Err: domain.ErrMissingStore, New: apperrors.ValidationError},
}

func handleOrderError(c *gin.Context, err error) {
	response.HandleError(c, err, orderErrorMappings)
}
