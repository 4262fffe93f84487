package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/customer/domain"
)

// CreateCustomerRequest represents a request to register a customer.
type CreateCustomerRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Nickname  string    `json:"nickname"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerToResponse converts a domain customer to its API representation.
func CustomerToResponse(c *domain.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID(),
		Nickname:  c.Nickname(),
		Phone:     c.Phone(),
		CreatedAt: c.CreatedAt(),
	}
}
