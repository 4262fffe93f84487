package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/module/payment/entity"
	"github.com/storefront/server/internal/shared/database"
	"gorm.io/gorm"
)

// Repository defines the interface for payment data access.
type Repository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Payment, error)
	// FindLiveByOrderID returns the newest PENDING or APPROVED payment of an
	// order, or ErrPaymentNotFound.
	FindLiveByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	// CompareAndSwapStatus sets status to `to` only if it is still `from`.
	// It reports whether the row was changed.
	CompareAndSwapStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, payment *domain.Payment) error {
	ent := entity.FromDomain(payment)
	if err := database.Conn(ctx, r.db).Create(ent).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateExternalID
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.first(ctx, "find payment", "id = ?", id)
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*domain.Payment, error) {
	return r.first(ctx, "find payment by external id", "external_id = ?", externalID)
}

func (r *repository) FindLiveByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	var ent entity.PaymentEntity
	err := database.Conn(ctx, r.db).
		Where("order_id = ? AND status IN ?", orderID, []string{
			domain.StatusPending.String(),
			domain.StatusApproved.String(),
		}).
		Order("created_at DESC").
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("find live payment: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) CompareAndSwapStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&entity.PaymentEntity{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(map[string]interface{}{
			"status":     to.String(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("update payment status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) first(ctx context.Context, op string, query string, args ...interface{}) (*domain.Payment, error) {
	var ent entity.PaymentEntity
	err := database.Conn(ctx, r.db).Where(query, args...).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ent.ToDomain(), nil
}
