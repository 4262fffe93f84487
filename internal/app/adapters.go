package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/module/order"
	"github.com/storefront/server/internal/module/payment"
	paymentdomain "github.com/storefront/server/internal/module/payment/domain"
)

// catalogItems is the catalog query the order module depends on.
type catalogItems interface {
	FindItems(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error)
}

// catalogItemReader adapts the catalog service to order.ItemReader.
// It lives in the app package to keep the order module free of catalog imports.
type catalogItemReader struct {
	catalog catalogItems
}

func newCatalogItemReader(catalog catalogItems) *catalogItemReader {
	return &catalogItemReader{catalog: catalog}
}

// ItemSnapshots returns the snapshots of the items that exist. Missing IDs are
// left out of the map; the order service reports them.
func (r *catalogItemReader) ItemSnapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]order.ItemSnapshot, error) {
	items, err := r.catalog.FindItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	snapshots := make(map[uuid.UUID]order.ItemSnapshot, len(items))
	for _, item := range items {
		snapshots[item.ID()] = order.ItemSnapshot{
			ID:        item.ID(),
			StoreID:   item.StoreID(),
			Name:      item.Name(),
			Price:     item.Price(),
			Available: item.IsAvailable(),
		}
	}
	return snapshots, nil
}

// livePayments is the payment query the order module depends on.
type livePayments interface {
	FindLiveByOrderID(ctx context.Context, orderID uuid.UUID) (*paymentdomain.Payment, error)
}

// orderPaymentReader adapts the payment repository to order.PaymentReader.
type orderPaymentReader struct {
	payments livePayments
}

func newOrderPaymentReader(payments livePayments) *orderPaymentReader {
	return &orderPaymentReader{payments: payments}
}

// HasLivePayment reports whether a PENDING or APPROVED payment exists for the order.
func (r *orderPaymentReader) HasLivePayment(ctx context.Context, orderID uuid.UUID) (bool, error) {
	_, err := r.payments.FindLiveByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}
