package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
)

// ItemStatus marks whether a line counts towards the order total.
type ItemStatus string

const (
	ItemStatusActive ItemStatus = "ACTIVE"
	ItemStatusVoided ItemStatus = "VOIDED"
)

// OrderItem is an immutable order line. Name and price are snapshots taken
// when the order was placed.
type OrderItem struct {
	id        uuid.UUID
	itemID    uuid.UUID
	name      string
	unitPrice money.Amount
	quantity  int
	status    ItemStatus
}

// NewOrderItem creates a new active order line.
func NewOrderItem(itemID uuid.UUID, name string, unitPrice money.Amount, quantity int) (*OrderItem, error) {
	if itemID == uuid.Nil {
		return nil, ErrMissingItemRef
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingItemName
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	return &OrderItem{
		id:        uuid.New(),
		itemID:    itemID,
		name:      name,
		unitPrice: unitPrice,
		quantity:  quantity,
		status:    ItemStatusActive,
	}, nil
}

// RestoreOrderItem recreates an order line from persistence.
func RestoreOrderItem(id, itemID uuid.UUID, name string, unitPrice money.Amount, quantity int, status ItemStatus) *OrderItem {
	return &OrderItem{
		id:        id,
		itemID:    itemID,
		name:      name,
		unitPrice: unitPrice,
		quantity:  quantity,
		status:    status,
	}
}

func (i *OrderItem) ID() uuid.UUID           { return i.id }
func (i *OrderItem) ItemID() uuid.UUID       { return i.itemID }
func (i *OrderItem) Name() string            { return i.name }
func (i *OrderItem) UnitPrice() money.Amount { return i.unitPrice }
func (i *OrderItem) Quantity() int           { return i.quantity }
func (i *OrderItem) Status() ItemStatus      { return i.status }
func (i *OrderItem) IsActive() bool          { return i.status != ItemStatusVoided }

// Subtotal returns unit price times quantity.
func (i *OrderItem) Subtotal() money.Amount {
	return i.unitPrice.Multiply(i.quantity)
}

// Voided returns a copy of the line marked as voided.
func (i *OrderItem) Voided() *OrderItem {
	cp := *i
	cp.status = ItemStatusVoided
	return &cp
}
