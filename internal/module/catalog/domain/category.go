package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Category groups the items of one store.
type Category struct {
	id        uuid.UUID
	storeID   uuid.UUID
	name      string
	createdAt time.Time
}

// NewCategory creates a category.
func NewCategory(storeID uuid.UUID, name string) (*Category, error) {
	if storeID == uuid.Nil {
		return nil, ErrMissingStore
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 64 {
		return nil, ErrInvalidCategory
	}
	return &Category{id: uuid.New(), storeID: storeID, name: name, createdAt: nowFunc()}, nil
}

// RestoreCategory recreates a category from persistence.
func RestoreCategory(id, storeID uuid.UUID, name string, createdAt time.Time) *Category {
	return &Category{id: id, storeID: storeID, name: name, createdAt: createdAt}
}

func (c *Category) ID() uuid.UUID        { return c.id }
func (c *Category) StoreID() uuid.UUID   { return c.storeID }
func (c *Category) Name() string         { return c.name }
func (c *Category) CreatedAt() time.Time { return c.createdAt }
