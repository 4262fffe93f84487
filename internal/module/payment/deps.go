package payment

import (
	"context"

	"github.com/google/uuid"
	orderdomain "github.com/storefront/server/internal/module/order/domain"
)

// OrderStore is the slice of order persistence the payment module needs.
// Payments never touch order items.
type OrderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*orderdomain.Order, error)
	UpdateWithoutItems(ctx context.Context, order *orderdomain.Order) error
}

// Transactor runs fn in one database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Observer receives reconciliation and webhook outcomes for metrics.
type Observer interface {
	ObserveWebhook(provider, result string)
	ObserveReconcile(provider, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveWebhook(string, string)   {}
func (nopObserver) ObserveReconcile(string, string) {}
