package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/utils/pagination"
	"github.com/storefront/server/internal/utils/patch"
)

// --- Requests ---

// CreateStoreRequest represents a request to create a store.
type CreateStoreRequest struct {
	Name      string   `json:"name" binding:"required"`
	Code      string   `json:"code" binding:"required"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsOpen    *bool    `json:"is_open,omitempty"`
}

// UpdateStoreRequest changes the fields present in the payload.
type UpdateStoreRequest struct {
	Name    patch.Optional[string] `json:"name"`
	Address patch.Optional[string] `json:"address"`
	Phone   patch.Optional[string] `json:"phone"`
	IsOpen  patch.Optional[bool]   `json:"is_open"`
}

// ListStoresQuery filters the store list.
type ListStoresQuery struct {
	Status string `form:"status"`
	Sort   string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateItemRequest represents a request to create an item.
type CreateItemRequest struct {
	StoreID     uuid.UUID `json:"store_id" binding:"required"`
	CategoryID  uuid.UUID `json:"category_id" binding:"required"`
	Code        string    `json:"code" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Price       string    `json:"price" binding:"required"`
}

// UpdateItemRequest changes the fields present in the payload.
type UpdateItemRequest struct {
	Name        patch.Optional[string]    `json:"name"`
	Description patch.Optional[string]    `json:"description"`
	Price       patch.Optional[string]    `json:"price"`
	CategoryID  patch.Optional[uuid.UUID] `json:"category_id"`
}

// ListItemsQuery filters a store's items.
type ListItemsQuery struct {
	CategoryID     string `form:"category_id" binding:"omitempty,uuid"`
	Search         string `form:"q"`
	IncludeDeleted bool   `form:"include_deleted"`
}

// --- Responses ---

// LocationResponse is a store's coordinates.
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StoreResponse represents a store in API responses.
type StoreResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Code      string            `json:"code"`
	Address   string            `json:"address"`
	Phone     string            `json:"phone"`
	Location  *LocationResponse `json:"location,omitempty"`
	IsOpen    bool              `json:"is_open"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt *time.Time        `json:"deleted_at,omitempty"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemResponse represents an item in API responses.
type ItemResponse struct {
	ID           uuid.UUID  `json:"id"`
	StoreID      uuid.UUID  `json:"store_id"`
	CategoryID   uuid.UUID  `json:"category_id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        string     `json:"price"`
	PriceInCents int64      `json:"price_in_cents"`
	IsActive     bool       `json:"is_active"`
	IsAvailable  bool       `json:"is_available"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// ItemListResponse is one page of items.
type ItemListResponse struct {
	Items []*ItemResponse `json:"items"`
	pagination.PageInfo
}

// StoreToResponse converts a domain store to its API representation.
func StoreToResponse(s *domain.Store) *StoreResponse {
	resp := &StoreResponse{
		ID:        s.ID(),
		Name:      s.Name(),
		Code:      s.Code(),
		Address:   s.Address(),
		Phone:     s.Phone(),
		IsOpen:    s.IsOpen(),
		IsActive:  s.IsActive(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
		DeletedAt: s.DeletedAt(),
	}
	if l := s.Location(); l != nil {
		resp.Location = &LocationResponse{Latitude: l.Latitude, Longitude: l.Longitude}
	}
	return resp
}

// CategoryToResponse converts a domain category to its API representation.
func CategoryToResponse(c *domain.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID(),
		StoreID:   c.StoreID(),
		Name:      c.Name(),
		CreatedAt: c.CreatedAt(),
	}
}

// ItemToResponse converts a domain item to its API representation.
func ItemToResponse(i *domain.Item) *ItemResponse {
	return &ItemResponse{
		ID:           i.ID(),
		StoreID:      i.StoreID(),
		CategoryID:   i.CategoryID(),
		Code:         i.Code(),
		Name:         i.Name(),
		Description:  i.Description(),
		Price:        i.Price().String(),
		PriceInCents: i.Price().Cents(),
		IsActive:     i.IsActive(),
		IsAvailable:  i.IsAvailable(),
		CreatedAt:    i.CreatedAt(),
		UpdatedAt:    i.UpdatedAt(),
		DeletedAt:    i.DeletedAt(),
	}
}
