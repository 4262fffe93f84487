package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
)

const maxCodeLength = 32

// nowFunc is swapped in tests to control timestamps.
var nowFunc = time.Now

// Order is the aggregate root for a customer order and its lines.
type Order struct {
	id         uuid.UUID
	storeID    uuid.UUID
	customerID *uuid.UUID
	code       string
	status     Status
	// storedStatus is the status last read from or written to storage.
	storedStatus Status
	items        []*OrderItem
	total        money.Amount
	createdAt    time.Time
	updatedAt    time.Time
}

// NewOrder creates an order awaiting payment.
func NewOrder(storeID uuid.UUID, customerID *uuid.UUID, code string, items []*OrderItem) (*Order, error) {
	if storeID == uuid.Nil {
		return nil, ErrMissingStore
	}
	code = strings.TrimSpace(code)
	if code == "" || len(code) > maxCodeLength {
		return nil, ErrInvalidCode
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	now := nowFunc()
	o := &Order{
		id:           uuid.New(),
		storeID:      storeID,
		customerID:   customerID,
		code:         code,
		status:       StatusPaymentPending,
		storedStatus: StatusPaymentPending,
		items:        cloneItems(items),
		createdAt:    now,
		updatedAt:    now,
	}
	o.recalculateTotal()
	return o, nil
}

// RestoreOrder recreates an order from persistence without validation.
// The total is always derived from the items.
func RestoreOrder(
	id, storeID uuid.UUID,
	customerID *uuid.UUID,
	code string,
	status Status,
	items []*OrderItem,
	createdAt, updatedAt time.Time,
) *Order {
	o := &Order{
		id:           id,
		storeID:      storeID,
		customerID:   customerID,
		code:         code,
		status:       status,
		storedStatus: status,
		items:        cloneItems(items),
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
	o.recalculateTotal()
	return o
}

// --- Getters ---

func (o *Order) ID() uuid.UUID          { return o.id }
func (o *Order) StoreID() uuid.UUID     { return o.storeID }
func (o *Order) CustomerID() *uuid.UUID { return o.customerID }
func (o *Order) Code() string           { return o.code }
func (o *Order) Status() Status         { return o.status }
func (o *Order) Total() money.Amount    { return o.total }
func (o *Order) CreatedAt() time.Time   { return o.createdAt }
func (o *Order) UpdatedAt() time.Time   { return o.updatedAt }
func (o *Order) Items() []*OrderItem    { return cloneItems(o.items) }

// TotalInCents is a shorthand for Total().Cents().
func (o *Order) TotalInCents() int64 { return o.total.Cents() }

// IsPaymentPending returns true while the order can still be paid or edited.
func (o *Order) IsPaymentPending() bool {
	return o.status == StatusPaymentPending
}

// StoredStatus returns the status the order had when it was loaded or last
// saved. Repositories write only if storage still holds it.
func (o *Order) StoredStatus() Status { return o.storedStatus }

// MarkStored records that the current status has been persisted.
func (o *Order) MarkStored() { o.storedStatus = o.status }

// CanCancel reports whether Cancel would succeed.
func (o *Order) CanCancel() bool {
	return o.status.CanTransitionTo(StatusCanceled)
}

// --- Transitions ---

// MarkPaid moves a pending order to PAID. Only payment reconciliation calls this.
func (o *Order) MarkPaid() error {
	return o.transitionTo(StatusPaid)
}

// StartPreparing moves a paid order to PREPARING.
func (o *Order) StartPreparing() error {
	return o.transitionTo(StatusPreparing)
}

// MarkReady moves a preparing order to READY.
func (o *Order) MarkReady() error {
	return o.transitionTo(StatusReady)
}

// Complete moves a ready order to COMPLETED.
func (o *Order) Complete() error {
	return o.transitionTo(StatusCompleted)
}

// Cancel cancels an order that has not started preparation.
func (o *Order) Cancel() error {
	return o.transitionTo(StatusCanceled)
}

// ReplaceItems swaps the whole line collection. Only allowed before payment.
func (o *Order) ReplaceItems(items []*OrderItem) error {
	if o.status != StatusPaymentPending {
		return fmt.Errorf("%w (status %s)", ErrItemsLocked, o.status)
	}
	if len(items) == 0 {
		return ErrEmptyItems
	}

	o.items = cloneItems(items)
	o.recalculateTotal()
	o.touch()
	return nil
}

func (o *Order) transitionTo(target Status) error {
	if !o.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.status, target)
	}
	o.status = target
	o.touch()
	return nil
}

// touch bumps updatedAt, never moving it backwards.
func (o *Order) touch() {
	now := nowFunc()
	if now.Before(o.updatedAt) {
		now = o.updatedAt
	}
	o.updatedAt = now
}

func (o *Order) recalculateTotal() {
	var total money.Amount
	for _, item := range o.items {
		if item.IsActive() {
			total = total.Add(item.Subtotal())
		}
	}
	o.total = total
}

func cloneItems(items []*OrderItem) []*OrderItem {
	out := make([]*OrderItem, len(items))
	copy(out, items)
	return out
}
