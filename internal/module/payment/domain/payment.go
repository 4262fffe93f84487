package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
)

// Payment errors.
var (
	ErrMissingOrder            = errors.New("payment requires an order")
	ErrMissingExternalID       = errors.New("payment requires an external id")
	ErrInvalidAmount           = errors.New("payment amount must be greater than zero")
	ErrUnknownProvider         = errors.New("unknown payment provider")
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
)

// nowFunc is swapped in tests to control timestamps.
var nowFunc = time.Now

// Payment represents a single charge attempt for an order.
type Payment struct {
	id         uuid.UUID
	orderID    uuid.UUID
	provider   Provider
	status     Status
	amount     money.Amount
	qrCode     string
	externalID string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPayment creates a pending payment for a charge the provider has accepted.
// qrCode holds whatever the client needs to resume the payment: the PIX copy
// and paste code, or the WeChat prepay package.
func NewPayment(orderID uuid.UUID, provider Provider, amount money.Amount, externalID, qrCode string) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, ErrMissingOrder
	}
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrMissingExternalID
	}
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	now := nowFunc()
	return &Payment{
		id:         uuid.New(),
		orderID:    orderID,
		provider:   provider,
		status:     StatusPending,
		amount:     amount,
		qrCode:     qrCode,
		externalID: externalID,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// RestorePayment recreates a Payment from persisted data.
func RestorePayment(
	id, orderID uuid.UUID,
	provider Provider,
	status Status,
	amount money.Amount,
	qrCode, externalID string,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:         id,
		orderID:    orderID,
		provider:   provider,
		status:     status,
		amount:     amount,
		qrCode:     qrCode,
		externalID: externalID,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

func (p *Payment) ID() uuid.UUID        { return p.id }
func (p *Payment) OrderID() uuid.UUID   { return p.orderID }
func (p *Payment) Provider() Provider   { return p.provider }
func (p *Payment) Status() Status       { return p.status }
func (p *Payment) Amount() money.Amount { return p.amount }
func (p *Payment) QRCode() string       { return p.qrCode }
func (p *Payment) ExternalID() string   { return p.externalID }
func (p *Payment) CreatedAt() time.Time { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time { return p.updatedAt }

// AmountInCents is a shorthand for Amount().Cents().
func (p *Payment) AmountInCents() int64 { return p.amount.Cents() }

// TransitionTo moves the payment to target.
func (p *Payment) TransitionTo(target Status) error {
	if !p.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, p.status, target)
	}
	p.status = target
	now := nowFunc()
	if now.After(p.updatedAt) {
		p.updatedAt = now
	}
	return nil
}
