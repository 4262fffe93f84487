package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/shared/money"
)

// StoreEntity is the persistence model for stores. DeletedAt is managed by
// the domain, so it is a plain column rather than gorm.DeletedAt.
type StoreEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:64;not null"`
	Code      string    `gorm:"size:16;not null;uniqueIndex:idx_stores_code"`
	Address   string    `gorm:"size:255"`
	Phone     string    `gorm:"size:32"`
	Latitude  *float64
	Longitude *float64
	IsOpen    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// TableName returns the database table name.
func (StoreEntity) TableName() string {
	return "stores"
}

// ToDomain converts the entity to a domain Store.
func (e *StoreEntity) ToDomain() *domain.Store {
	var location *domain.Location
	if e.Latitude != nil && e.Longitude != nil {
		location = &domain.Location{Latitude: *e.Latitude, Longitude: *e.Longitude}
	}
	return domain.RestoreStore(
		e.ID,
		e.Name,
		e.Code,
		e.Address,
		e.Phone,
		location,
		e.IsOpen,
		e.CreatedAt,
		e.UpdatedAt,
		e.DeletedAt,
	)
}

// StoreFromDomain creates a StoreEntity from a domain Store.
func StoreFromDomain(s *domain.Store) *StoreEntity {
	e := &StoreEntity{
		ID:        s.ID(),
		Name:      s.Name(),
		Code:      s.Code(),
		Address:   s.Address(),
		Phone:     s.Phone(),
		IsOpen:    s.IsOpen(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
		DeletedAt: s.DeletedAt(),
	}
	if l := s.Location(); l != nil {
		lat, lng := l.Latitude, l.Longitude
		e.Latitude, e.Longitude = &lat, &lng
	}
	return e
}

// CategoryEntity is the persistence model for item categories.
type CategoryEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_categories_store_name,priority:1"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_categories_store_name,priority:2"`
	CreatedAt time.Time
}

// TableName returns the database table name.
func (CategoryEntity) TableName() string {
	return "categories"
}

// ToDomain converts the entity to a domain Category.
func (e *CategoryEntity) ToDomain() *domain.Category {
	return domain.RestoreCategory(e.ID, e.StoreID, e.Name, e.CreatedAt)
}

// CategoryFromDomain creates a CategoryEntity from a domain Category.
func CategoryFromDomain(c *domain.Category) *CategoryEntity {
	return &CategoryEntity{
		ID:        c.ID(),
		StoreID:   c.StoreID(),
		Name:      c.Name(),
		CreatedAt: c.CreatedAt(),
	}
}

// ItemEntity is the persistence model for catalog items.
type ItemEntity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_items_store_code,priority:1"`
	CategoryID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Code         string    `gorm:"size:32;not null;uniqueIndex:idx_items_store_code,priority:2"`
	Name         string    `gorm:"size:128;not null"`
	Description  string    `gorm:"type:text"`
	PriceInCents int64     `gorm:"not null"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"`
}

// TableName returns the database table name.
func (ItemEntity) TableName() string {
	return "items"
}

// ToDomain converts the entity to a domain Item.
func (e *ItemEntity) ToDomain() *domain.Item {
	return domain.RestoreItem(
		e.ID,
		e.StoreID,
		e.CategoryID,
		e.Code,
		e.Name,
		e.Description,
		money.MustFromCents(e.PriceInCents),
		e.IsActive,
		e.CreatedAt,
		e.UpdatedAt,
		e.DeletedAt,
	)
}

// ItemFromDomain creates an ItemEntity from a domain Item.
func ItemFromDomain(i *domain.Item) *ItemEntity {
	return &ItemEntity{
		ID:           i.ID(),
		StoreID:      i.StoreID(),
		CategoryID:   i.CategoryID(),
		Code:         i.Code(),
		Name:         i.Name(),
		Description:  i.Description(),
		PriceInCents: i.Price().Cents(),
		IsActive:     i.IsActive(),
		CreatedAt:    i.CreatedAt(),
		UpdatedAt:    i.UpdatedAt(),
		DeletedAt:    i.DeletedAt(),
	}
}
