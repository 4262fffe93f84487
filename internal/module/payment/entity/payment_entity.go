package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/shared/money"
)

// PaymentEntity is the GORM entity for Payment.
type PaymentEntity struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Provider      string    `gorm:"size:16;not null"`
	Status        string    `gorm:"size:16;not null;index"`
	AmountInCents int64     `gorm:"not null"`
	QRCode        string    `gorm:"type:text"`
	ExternalID    string    `gorm:"size:128;not null;uniqueIndex:idx_payments_external_id"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the database table name.
func (PaymentEntity) TableName() string {
	return "payments"
}

// ToDomain converts entity to domain Payment.
func (e *PaymentEntity) ToDomain() *domain.Payment {
	// Stored amounts are never negative; a corrupt row degrades to zero.
	amount, err := money.FromCents(e.AmountInCents)
	if err != nil {
		amount = money.Amount{}
	}
	return domain.RestorePayment(
		e.ID,
		e.OrderID,
		domain.Provider(e.Provider),
		domain.Status(e.Status),
		amount,
		e.QRCode,
		e.ExternalID,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// FromDomain converts domain Payment to entity.
func FromDomain(p *domain.Payment) *PaymentEntity {
	return &PaymentEntity{
		ID:            p.ID(),
		OrderID:       p.OrderID(),
		Provider:      p.Provider().String(),
		Status:        p.Status().String(),
		AmountInCents: p.AmountInCents(),
		QRCode:        p.QRCode(),
		ExternalID:    p.ExternalID(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}
