package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
)

// ItemSnapshot is the catalog data copied onto an order line.
type ItemSnapshot struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	Name      string
	Price     money.Amount
	Available bool
}

// ItemReader resolves catalog items for checkout.
// Missing ids are simply absent from the returned map.
type ItemReader interface {
	ItemSnapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ItemSnapshot, error)
}

// PaymentReader reports payment state the order module must respect.
type PaymentReader interface {
	// HasLivePayment is true while a payment for the order is pending or approved.
	HasLivePayment(ctx context.Context, orderID uuid.UUID) (bool, error)
}
