package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order/domain"
)

// OrderLineRequest is one requested line.
type OrderLineRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest represents a checkout request.
type CreateOrderRequest struct {
	StoreID    uuid.UUID          `json:"store_id" binding:"required"`
	CustomerID *uuid.UUID         `json:"customer_id,omitempty"`
	Items      []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ReplaceItemsRequest replaces every line of a pending order.
type ReplaceItemsRequest struct {
	Items []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemResponse represents an order line in API responses.
type OrderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Subtotal  string    `json:"subtotal"`
	Status    string    `json:"status"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	StoreID      uuid.UUID           `json:"store_id"`
	CustomerID   *uuid.UUID          `json:"customer_id,omitempty"`
	Code         string              `json:"code"`
	Status       string              `json:"status"`
	Total        string              `json:"total"`
	TotalInCents int64               `json:"total_in_cents"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toLineInputs(lines []OrderLineRequest) []LineInput {
	out := make([]LineInput, len(lines))
	for i, l := range lines {
		out[i] = LineInput{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	return out
}

// OrderToResponse converts a domain order to its API representation.
func OrderToResponse(o *domain.Order) *OrderResponse {
	items := o.Items()
	resp := &OrderResponse{
		ID:           o.ID(),
		StoreID:      o.StoreID(),
		CustomerID:   o.CustomerID(),
		Code:         o.Code(),
		Status:       o.Status().String(),
		Total:        o.Total().String(),
		TotalInCents: o.TotalInCents(),
		Items:        make([]OrderItemResponse, len(items)),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
	for i, item := range items {
		resp.Items[i] = OrderItemResponse{
			ID:        item.ID(),
			ItemID:    item.ItemID(),
			Name:      item.Name(),
			UnitPrice: item.UnitPrice().String(),
			Quantity:  item.Quantity(),
			Subtotal:  item.Subtotal().String(),
			Status:    string(item.Status()),
		}
	}
	return resp
}
