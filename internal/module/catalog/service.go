package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/shared/money"
	"github.com/storefront/server/internal/utils/pagination"
	"github.com/storefront/server/internal/utils/patch"
	"github.com/storefront/server/internal/utils/validation"
	"go.uber.org/zap"
)

// CreateStoreInput is the input of CreateStore.
type CreateStoreInput struct {
	Name      string `validate:"required"`
	Code      string `validate:"required"`
	Address   string `validate:"max=255"`
	Phone     string `validate:"max=32"`
	Latitude  *float64
	Longitude *float64 `validate:"required_with=Latitude"`
	IsOpen    bool
}

// CreateItemInput is the input of CreateItem. Price is a decimal string such
// as "25.00".
type CreateItemInput struct {
	StoreID     uuid.UUID `validate:"required"`
	CategoryID  uuid.UUID `validate:"required"`
	Code        string    `validate:"required,max=32"`
	Name        string    `validate:"required"`
	Description string
	Price       string `validate:"required"`
}

// UpdateItemInput lists the item fields to change.
type UpdateItemInput struct {
	Name        patch.Optional[string]
	Description patch.Optional[string]
	Price       patch.Optional[string]
	CategoryID  patch.Optional[uuid.UUID]
}

// ItemPage is one page of items.
type ItemPage struct {
	Items []*domain.Item
	Total int64
}

// Service implements catalog operations.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new catalog service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// --- Stores ---

// CreateStore creates a store with a unique code.
func (s *Service) CreateStore(ctx context.Context, in CreateStoreInput) (*domain.Store, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var location *domain.Location
	if in.Latitude != nil {
		location = &domain.Location{Latitude: *in.Latitude, Longitude: *in.Longitude}
	}
	store, err := domain.NewStore(domain.StoreParams{
		Name:     in.Name,
		Code:     in.Code,
		Address:  in.Address,
		Phone:    in.Phone,
		Location: location,
		IsOpen:   in.IsOpen,
	})
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsStoreByCode(ctx, store.Code())
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrStoreCodeTaken, store.Code())
	}

	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, err
	}

	s.logger.Info("store created",
		zap.String("store_id", store.ID().String()),
		zap.String("code", store.Code()),
	)
	return store, nil
}

// GetStore returns a store by ID, deleted or not.
func (s *Service) GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	return s.repo.FindStoreByID(ctx, id)
}

// ListStores returns the stores matching q. An empty status lists active stores.
func (s *Service) ListStores(ctx context.Context, q StoreQuery) ([]*domain.Store, error) {
	if q.Status == "" {
		q.Status = StoreStatusActive
	}
	if !q.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown store status %q", validation.ErrInvalidInput, q.Status)
	}
	return s.repo.FindStores(ctx, q)
}

// UpdateStore applies a patch to an active store.
func (s *Service) UpdateStore(ctx context.Context, id uuid.UUID, p domain.StorePatch) (*domain.Store, error) {
	return s.changeStore(ctx, id, "store updated", func(store *domain.Store) error {
		return store.Update(p)
	})
}

// DeleteStore soft deletes a store.
func (s *Service) DeleteStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	return s.changeStore(ctx, id, "store deleted", (*domain.Store).Deactivate)
}

// RestoreStore undoes DeleteStore.
func (s *Service) RestoreStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	return s.changeStore(ctx, id, "store restored", (*domain.Store).Restore)
}

func (s *Service) changeStore(ctx context.Context, id uuid.UUID, msg string, apply func(*domain.Store) error) (*domain.Store, error) {
	store, err := s.repo.FindStoreByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(store); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStore(ctx, store); err != nil {
		return nil, err
	}

	s.logger.Info(msg, zap.String("store_id", id.String()))
	return store, nil
}

// --- Categories ---

// CreateCategory adds a category to an active store.
func (s *Service) CreateCategory(ctx context.Context, storeID uuid.UUID, name string) (*domain.Category, error) {
	if _, err := s.activeStore(ctx, storeID); err != nil {
		return nil, err
	}

	category, err := domain.NewCategory(storeID, name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns the categories of a store sorted by name.
func (s *Service) ListCategories(ctx context.Context, storeID uuid.UUID) ([]*domain.Category, error) {
	if _, err := s.repo.FindStoreByID(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.FindCategoriesByStore(ctx, storeID)
}

// --- Items ---

// CreateItem adds an active item to an active store.
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (*domain.Item, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.StoreID, in.CategoryID); err != nil {
		return nil, err
	}

	item, err := domain.NewItem(domain.ItemParams{
		StoreID:     in.StoreID,
		CategoryID:  in.CategoryID,
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
	})
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsItemByCode(ctx, item.StoreID(), item.Code())
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrItemCodeTaken, item.Code())
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item created",
		zap.String("item_id", item.ID().String()),
		zap.String("store_id", item.StoreID().String()),
		zap.String("code", item.Code()),
		zap.String("price", item.Price().String()),
	)
	return item, nil
}

// GetItem returns an item by ID.
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return s.repo.FindItemByID(ctx, id)
}

// ListItems returns one page of a store's items.
func (s *Service) ListItems(ctx context.Context, q ItemQuery) (*ItemPage, error) {
	if q.Page == nil {
		q.Page = pagination.New()
	}
	items, total, err := s.repo.FindItems(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ItemPage{Items: items, Total: total}, nil
}

// UpdateItem changes the set fields of an item. Nothing is written if any
// field is invalid.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, in UpdateItemInput) (*domain.Item, error) {
	p := domain.ItemPatch{
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	if v, ok := in.Price.Value(); ok {
		price, err := parsePrice(v)
		if err != nil {
			return nil, err
		}
		p.Price = patch.Set(price)
	}

	return s.changeItem(ctx, id, "item updated", func(item *domain.Item) error {
		if v, ok := p.CategoryID.Value(); ok && v != item.CategoryID() {
			if err := s.checkCategory(ctx, item.StoreID(), v); err != nil {
				return err
			}
		}
		return item.Update(p)
	})
}

// DeactivateItem takes an item off sale.
func (s *Service) DeactivateItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return s.changeItem(ctx, id, "item deactivated", (*domain.Item).Deactivate)
}

// ReactivateItem puts an item back on sale.
func (s *Service) ReactivateItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return s.changeItem(ctx, id, "item reactivated", (*domain.Item).Reactivate)
}

// DeleteItem soft deletes an item.
func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return s.changeItem(ctx, id, "item deleted", (*domain.Item).SoftDelete)
}

// RestoreItem undoes DeleteItem.
func (s *Service) RestoreItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return s.changeItem(ctx, id, "item restored", (*domain.Item).RestoreDeletion)
}

// FindItems returns the items with the given IDs. Unknown IDs are skipped.
func (s *Service) FindItems(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error) {
	return s.repo.FindItemsByIDs(ctx, ids)
}

func (s *Service) changeItem(ctx context.Context, id uuid.UUID, msg string, apply func(*domain.Item) error) (*domain.Item, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(item); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info(msg,
		zap.String("item_id", id.String()),
		zap.Bool("available", item.IsAvailable()),
	)
	return item, nil
}

// --- Helpers ---

func (s *Service) activeStore(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	store, err := s.repo.FindStoreByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !store.IsActive() {
		return nil, domain.ErrStoreDeleted
	}
	return store, nil
}

func (s *Service) checkCategory(ctx context.Context, storeID, categoryID uuid.UUID) error {
	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category.StoreID() != storeID {
		return ErrCategoryWrongStore
	}
	return nil
}

func parsePrice(s string) (money.Amount, error) {
	price, err := money.ParseDecimal(s)
	if err != nil {
		return money.Amount{}, fmt.Errorf("%w: %v", domain.ErrInvalidPrice, err)
	}
	return price, nil
}
