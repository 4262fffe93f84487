package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/customer/domain"
	"github.com/storefront/server/internal/utils/validation"
	"go.uber.org/zap"
)

// CreateCustomerInput is the input of Create.
type CreateCustomerInput struct {
	Nickname string `validate:"required"`
	Phone    string `validate:"required"`
}

// Service implements customer operations.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new customer service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers a customer. Phone numbers are unique.
func (s *Service) Create(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	c, err := domain.NewCustomer(in.Nickname, in.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.String("customer_id", c.ID().String()))
	return c, nil
}

// Get returns a customer by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByPhone looks a customer up by phone, in any format NewCustomer accepts.
func (s *Service) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	normalized, err := domain.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByPhone(ctx, normalized)
}
