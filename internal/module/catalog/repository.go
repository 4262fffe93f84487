package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/module/catalog/entity"
	"github.com/storefront/server/internal/shared/database"
	"github.com/storefront/server/internal/utils/pagination"
	"gorm.io/gorm"
)

// StoreStatus filters stores by deletion state.
type StoreStatus string

const (
	StoreStatusActive  StoreStatus = "ACTIVE"
	StoreStatusDeleted StoreStatus = "DELETED"
	StoreStatusAll     StoreStatus = "ALL"
)

// IsValid returns true for a known filter.
func (s StoreStatus) IsValid() bool {
	return s == StoreStatusActive || s == StoreStatusDeleted || s == StoreStatusAll
}

// StoreQuery selects stores.
type StoreQuery struct {
	Status StoreStatus
	// Descending sorts newest first.
	Descending bool
}

// ItemQuery selects a page of a store's items.
type ItemQuery struct {
	StoreID        uuid.UUID
	CategoryID     *uuid.UUID
	Search         string
	IncludeDeleted bool
	Page           *pagination.Pagination
}

// Repository defines the interface for catalog data access.
type Repository interface {
	// Store operations
	CreateStore(ctx context.Context, store *domain.Store) error
	UpdateStore(ctx context.Context, store *domain.Store) error
	FindStoreByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	FindStores(ctx context.Context, q StoreQuery) ([]*domain.Store, error)
	ExistsStoreByCode(ctx context.Context, code string) (bool, error)

	// Category operations
	CreateCategory(ctx context.Context, category *domain.Category) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindCategoriesByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Category, error)

	// Item operations
	CreateItem(ctx context.Context, item *domain.Item) error
	UpdateItem(ctx context.Context, item *domain.Item) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error)
	FindItems(ctx context.Context, q ItemQuery) ([]*domain.Item, int64, error)
	ExistsItemByCode(ctx context.Context, storeID uuid.UUID, code string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// --- Store operations ---

func (r *repository) CreateStore(ctx context.Context, store *domain.Store) error {
	if err := database.Conn(ctx, r.db).Create(entity.StoreFromDomain(store)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrStoreCodeTaken
		}
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

func (r *repository) UpdateStore(ctx context.Context, store *domain.Store) error {
	e := entity.StoreFromDomain(store)
	result := database.Conn(ctx, r.db).
		Model(&entity.StoreEntity{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"name":       e.Name,
			"address":    e.Address,
			"phone":      e.Phone,
			"latitude":   e.Latitude,
			"longitude":  e.Longitude,
			"is_open":    e.IsOpen,
			"updated_at": e.UpdatedAt,
			"deleted_at": e.DeletedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update store: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStoreNotFound
	}
	return nil
}

func (r *repository) FindStoreByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	var e entity.StoreEntity
	if err := database.Conn(ctx, r.db).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("find store: %w", err)
	}
	return e.ToDomain(), nil
}

func (r *repository) FindStores(ctx context.Context, q StoreQuery) ([]*domain.Store, error) {
	query := database.Conn(ctx, r.db).Model(&entity.StoreEntity{})
	switch q.Status {
	case StoreStatusDeleted:
		query = query.Where("deleted_at IS NOT NULL")
	case StoreStatusAll:
	default:
		query = query.Where("deleted_at IS NULL")
	}
	order := "created_at ASC"
	if q.Descending {
		order = "created_at DESC"
	}

	var entities []entity.StoreEntity
	if err := query.Order(order).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	stores := make([]*domain.Store, len(entities))
	for i := range entities {
		stores[i] = entities[i].ToDomain()
	}
	return stores, nil
}

func (r *repository) ExistsStoreByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&entity.StoreEntity{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count stores by code: %w", err)
	}
	return count > 0, nil
}

// --- Category operations ---

func (r *repository) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := database.Conn(ctx, r.db).Create(entity.CategoryFromDomain(category)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrCategoryTaken
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var e entity.CategoryEntity
	if err := database.Conn(ctx, r.db).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return e.ToDomain(), nil
}

func (r *repository) FindCategoriesByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Category, error) {
	var entities []entity.CategoryEntity
	err := database.Conn(ctx, r.db).
		Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]*domain.Category, len(entities))
	for i := range entities {
		categories[i] = entities[i].ToDomain()
	}
	return categories, nil
}

// --- Item operations ---

func (r *repository) CreateItem(ctx context.Context, item *domain.Item) error {
	if err := database.Conn(ctx, r.db).Create(entity.ItemFromDomain(item)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrItemCodeTaken
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *repository) UpdateItem(ctx context.Context, item *domain.Item) error {
	e := entity.ItemFromDomain(item)
	result := database.Conn(ctx, r.db).
		Model(&entity.ItemEntity{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"category_id":    e.CategoryID,
			"name":           e.Name,
			"description":    e.Description,
			"price_in_cents": e.PriceInCents,
			"is_active":      e.IsActive,
			"updated_at":     e.UpdatedAt,
			"deleted_at":     e.DeletedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) FindItemByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var e entity.ItemEntity
	if err := database.Conn(ctx, r.db).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return e.ToDomain(), nil
}

func (r *repository) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []entity.ItemEntity
	if err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	items := make([]*domain.Item, len(entities))
	for i := range entities {
		items[i] = entities[i].ToDomain()
	}
	return items, nil
}

func (r *repository) FindItems(ctx context.Context, q ItemQuery) ([]*domain.Item, int64, error) {
	page := q.Page
	if page == nil {
		page = pagination.New()
	}

	query := database.Conn(ctx, r.db).
		Model(&entity.ItemEntity{}).
		Where("store_id = ?", q.StoreID)
	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if !q.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	var entities []entity.ItemEntity
	err := query.
		Order("code ASC").
		Scopes(page.Scope).
		Find(&entities).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	items := make([]*domain.Item, len(entities))
	for i := range entities {
		items[i] = entities[i].ToDomain()
	}
	return items, total, nil
}

func (r *repository) ExistsItemByCode(ctx context.Context, storeID uuid.UUID, code string) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&entity.ItemEntity{}).
		Where("store_id = ? AND code = ?", storeID, code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count items by code: %w", err)
	}
	return count > 0, nil
}
