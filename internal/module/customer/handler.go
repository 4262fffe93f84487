package customer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/customer/domain"
	"github.com/storefront/server/internal/shared/response"
	apperrors "github.com/storefront/server/internal/utils/errors"
)

// Handler handles HTTP requests for customers.
type Handler struct {
	service *Service
}

// NewHandler creates a new customer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers customer routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.GetByPhone)
		customers.GET("/:id", h.Get)
	}
}

// Create handles POST /customers.
func (h *Handler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	customer, err := h.service.Create(c.Request.Context(), CreateCustomerInput{
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	if err != nil {
		handleCustomerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CustomerToResponse(customer))
}

// Get handles GET /customers/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid customer ID"))
		return
	}

	customer, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleCustomerError(c, err)
		return
	}

	c.JSON(http.StatusOK, CustomerToResponse(customer))
}

// GetByPhone handles GET /customers?phone=.
func (h *Handler) GetByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		response.Error(c, apperrors.BadRequest("phone is required"))
		return
	}

	customer, err := h.service.GetByPhone(c.Request.Context(), phone)
	if err != nil {
		handleCustomerError(c, err)
		return
	}

	c.JSON(http.StatusOK, CustomerToResponse(customer))
}

var customerErrorMappings = []response.ErrorMapping{
	{Err: ErrCustomerNotFound, New: apperrors.NotFound, Arg: "customer"},
	{Err: ErrPhoneTaken, New: apperrors.Conflict},
	{Err: domain.ErrInvalidNickname, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidPhone, New: apperrors.ValidationError},
}

func handleCustomerError(c *gin.Context, err error) {
	response.HandleError(c, err, customerErrorMappings)
}
