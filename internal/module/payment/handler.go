package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order"
	orderdomain "github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/module/payment/provider"
	"github.com/storefront/server/internal/shared/response"
	apperrors "github.com/storefront/server/internal/utils/errors"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the payment routes. createMiddleware runs in front
// of the payment creation endpoints only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, createMiddleware ...gin.HandlerFunc) {
	payments := r.Group("/payments")
	{
		payments.POST("/pix", chain(createMiddleware, h.CreatePIXPayment)...)
		payments.POST("/wechat/jsapi", chain(createMiddleware, h.CreateWeChatJsapiPayment)...)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/sync", h.SyncStatus)
	}
}

// CreatePIXPayment handles POST /payments/pix.
func (h *Handler) CreatePIXPayment(c *gin.Context) {
	var req CreatePIXPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	result, err := h.service.CreatePIXPayment(c.Request.Context(), CreatePIXPaymentInput{
		OrderID:       req.OrderID,
		AmountInCents: req.AmountInCents,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(createdStatus(result), resultToResponse(result))
}

// CreateWeChatJsapiPayment handles POST /payments/wechat/jsapi.
func (h *Handler) CreateWeChatJsapiPayment(c *gin.Context) {
	var req CreateWeChatJsapiPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	result, err := h.service.CreateWeChatJsapiPayment(c.Request.Context(), CreateWeChatJsapiPaymentInput{
		OrderID:       req.OrderID,
		AmountInCents: req.AmountInCents,
		OpenID:        req.OpenID,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(createdStatus(result), resultToResponse(result))
}

// GetPayment handles GET /payments/:id.
func (h *Handler) GetPayment(c *gin.Context) {
	paymentID, ok := parsePaymentID(c)
	if !ok {
		return
	}

	pay, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaymentToResponse(pay))
}

// SyncStatus handles POST /payments/:id/sync.
func (h *Handler) SyncStatus(c *gin.Context) {
	paymentID, ok := parsePaymentID(c)
	if !ok {
		return
	}

	pay, err := h.service.SyncStatus(c.Request.Context(), paymentID)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaymentToResponse(pay))
}

// --- Helpers ---

func chain(middleware []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	return append(handlers, h)
}

func createdStatus(r *PaymentResult) int {
	if r.Existing {
		return http.StatusOK
	}
	return http.StatusCreated
}

func parsePaymentID(c *gin.Context) (uuid.UUID, bool) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid payment ID"))
		return uuid.Nil, false
	}
	return paymentID, true
}

var paymentErrorMappings = []response.ErrorMapping{
	{Err: ErrPaymentNotFound, New: apperrors.NotFound, Arg: "payment"},
	{Err: order.ErrOrderNotFound, New: apperrors.NotFound, Arg: "order"},
	{Err: ErrOrderNotPayable, New: apperrors.Conflict},
	{Err: ErrAmountMismatch, New: apperrors.ValidationError},
	{Err: orderdomain.ErrInvalidTransition, New: apperrors.Conflict},
	{Err: ErrProviderNotFound, New: apperrors.ServiceUnavailable, Arg: "payment provider not configured"},
	{Err: provider.ErrGatewayUnavailable, New: apperrors.ServiceUnavailable, Arg: "payment provider unavailable"},
	{Err: provider.ErrGatewayRejected, New: apperrors.BadGateway, Arg: "payment provider rejected the request"},
	{Err: provider.ErrUnknownProviderStatus, New: apperrors.BadGateway, Arg: "payment provider returned an unknown status"},
}

func handlePaymentError(c *gin.Context, err error) {
	response.HandleError(c, err, paymentErrorMappings)
}
