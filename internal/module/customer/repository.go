package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/customer/domain"
	"github.com/storefront/server/internal/module/customer/entity"
	"github.com/storefront/server/internal/shared/database"
	"gorm.io/gorm"
)

// Repository defines the interface for customer data access.
type Repository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new customer repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, customer *domain.Customer) error {
	if err := database.Conn(ctx, r.db).Create(entity.FromDomain(customer)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrPhoneTaken
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.findOne(ctx, "phone = ?", phone)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var e entity.CustomerEntity
	if err := database.Conn(ctx, r.db).Where(query, arg).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return e.ToDomain(), nil
}
