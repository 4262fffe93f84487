package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/module/order/entity"
	"github.com/storefront/server/internal/shared/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the persistence contract for orders and their items.
type Repository interface {
	// CreateWithItems inserts the order row and all items atomically.
	CreateWithItems(ctx context.Context, order *domain.Order) error
	// UpdateWithoutItems writes scalar fields only; items are untouched.
	// Storage must still hold the order's StoredStatus, otherwise ErrOrderChanged.
	UpdateWithoutItems(ctx context.Context, order *domain.Order) error
	// UpdateWithItems writes scalar fields and replaces the whole item set atomically.
	// The stored order must still be awaiting payment, otherwise ErrOrderChanged.
	UpdateWithItems(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ExistsByCode(ctx context.Context, storeID uuid.UUID, code string) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *database.Transactor
}

// NewRepository creates a new order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, tx: database.NewTransactor(db)}
}

func (r *repository) CreateWithItems(ctx context.Context, order *domain.Order) error {
	e := entity.FromDomain(order)

	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		db := database.Conn(ctx, r.db)
		if err := db.Omit(clause.Associations).Create(e).Error; err != nil {
			return translateError("create order", err)
		}
		if len(e.Items) == 0 {
			return nil
		}
		if err := db.Create(&e.Items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
}

func (r *repository) UpdateWithoutItems(ctx context.Context, order *domain.Order) error {
	result := database.Conn(ctx, r.db).
		Model(&entity.OrderEntity{}).
		Where("id = ? AND status IN ?", order.ID(), entity.StorageStatuses(order.StoredStatus())).
		Updates(map[string]interface{}{
			"status":         entity.StatusToStorage(order.Status()),
			"customer_id":    order.CustomerID(),
			"total_in_cents": order.TotalInCents(),
			"updated_at":     order.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrChanged(database.Conn(ctx, r.db), order.ID())
	}
	order.MarkStored()
	return nil
}

func (r *repository) UpdateWithItems(ctx context.Context, order *domain.Order) error {
	items := entity.ItemsFromDomain(order)

	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		db := database.Conn(ctx, r.db)

		result := db.Model(&entity.OrderEntity{}).
			Where("id = ? AND status = ?", order.ID(), entity.StoragePendingPayment).
			Updates(map[string]interface{}{
				"status":         entity.StatusToStorage(order.Status()),
				"customer_id":    order.CustomerID(),
				"total_in_cents": order.TotalInCents(),
				"updated_at":     order.UpdatedAt(),
			})
		if result.Error != nil {
			return fmt.Errorf("update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return r.missingOrChanged(db, order.ID())
		}

		if err := db.Where("order_id = ?", order.ID()).Delete(&entity.OrderItemEntity{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := db.Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.MarkStored()
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var e entity.OrderEntity
	err := database.Conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&e, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return e.ToDomain(), nil
}

func (r *repository) ExistsByCode(ctx context.Context, storeID uuid.UUID, code string) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&entity.OrderEntity{}).
		Where("store_id = ? AND code = ?", storeID, code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count orders by code: %w", err)
	}
	return count > 0, nil
}

func (r *repository) missingOrChanged(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&entity.OrderEntity{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return ErrOrderChanged
}

func translateError(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return ErrOrderCodeTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}
