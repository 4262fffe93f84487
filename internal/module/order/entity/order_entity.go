package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/shared/money"
)

// OrderEntity is the persistence model for orders.
type OrderEntity struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_orders_store_code,priority:1"`
	CustomerID   *uuid.UUID `gorm:"type:uuid;index"`
	Code         string     `gorm:"size:32;not null;uniqueIndex:idx_orders_store_code,priority:2"`
	Status       string     `gorm:"size:32;not null;index"`
	TotalInCents int64      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relations
	Items []OrderItemEntity `gorm:"foreignKey:OrderID"`
}

// TableName returns the database table name.
func (OrderEntity) TableName() string {
	return "orders"
}

// ToDomain converts the entity to a domain Order.
func (e *OrderEntity) ToDomain() *domain.Order {
	items := make([]*domain.OrderItem, len(e.Items))
	for i := range e.Items {
		items[i] = e.Items[i].ToDomain()
	}

	return domain.RestoreOrder(
		e.ID,
		e.StoreID,
		e.CustomerID,
		e.Code,
		StatusToDomain(e.Status),
		items,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// FromDomain creates an OrderEntity from a domain Order.
func FromDomain(o *domain.Order) *OrderEntity {
	return &OrderEntity{
		ID:           o.ID(),
		StoreID:      o.StoreID(),
		CustomerID:   o.CustomerID(),
		Code:         o.Code(),
		Status:       StatusToStorage(o.Status()),
		TotalInCents: o.TotalInCents(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
		Items:        ItemsFromDomain(o),
	}
}

// OrderItemEntity is the persistence model for order items.
type OrderItemEntity struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID           uuid.UUID `gorm:"type:uuid;not null"`
	Position         int       `gorm:"not null"`
	Name             string    `gorm:"size:128;not null"`
	UnitPriceInCents int64     `gorm:"not null"`
	Quantity         int       `gorm:"not null"`
	SubtotalInCents  int64     `gorm:"not null"`
	Status           string    `gorm:"size:16;not null"`
}

// TableName returns the database table name.
func (OrderItemEntity) TableName() string {
	return "order_items"
}

// ToDomain converts the entity to a domain OrderItem.
func (e *OrderItemEntity) ToDomain() *domain.OrderItem {
	return domain.RestoreOrderItem(
		e.ID,
		e.ItemID,
		e.Name,
		money.MustFromCents(e.UnitPriceInCents),
		e.Quantity,
		domain.ItemStatus(e.Status),
	)
}

// ItemsFromDomain builds item rows for an order, keeping line order in Position.
func ItemsFromDomain(o *domain.Order) []OrderItemEntity {
	items := o.Items()
	out := make([]OrderItemEntity, len(items))
	for i, item := range items {
		out[i] = OrderItemEntity{
			ID:               item.ID(),
			OrderID:          o.ID(),
			ItemID:           item.ItemID(),
			Position:         i,
			Name:             item.Name(),
			UnitPriceInCents: item.UnitPrice().Cents(),
			Quantity:         item.Quantity(),
			SubtotalInCents:  item.Subtotal().Cents(),
			Status:           string(item.Status()),
		}
	}
	return out
}
