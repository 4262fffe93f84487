package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
	"github.com/storefront/server/internal/utils/patch"
)

// ItemParams holds the fields of a new item.
type ItemParams struct {
	StoreID     uuid.UUID
	CategoryID  uuid.UUID
	Code        string
	Name        string
	Description string
	Price       money.Amount
}

// ItemPatch lists the item fields an update may change.
type ItemPatch struct {
	Name        patch.Optional[string]
	Description patch.Optional[string]
	Price       patch.Optional[money.Amount]
	CategoryID  patch.Optional[uuid.UUID]
}

// Item is a sellable catalog entry. An item is orderable only while it is
// active and not deleted.
type Item struct {
	id          uuid.UUID
	storeID     uuid.UUID
	categoryID  uuid.UUID
	code        string
	name        string
	description string
	price       money.Amount
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewItem validates p and creates an active item.
func NewItem(p ItemParams) (*Item, error) {
	if p.StoreID == uuid.Nil {
		return nil, ErrMissingStore
	}
	if p.CategoryID == uuid.Nil {
		return nil, ErrMissingCategory
	}
	code := strings.TrimSpace(p.Code)
	if code == "" || len(code) > 32 {
		return nil, ErrInvalidItemCode
	}
	name, err := itemName(p.Name)
	if err != nil {
		return nil, err
	}
	description, err := itemDescription(p.Description)
	if err != nil {
		return nil, err
	}
	if p.Price.IsZero() {
		return nil, ErrInvalidPrice
	}

	now := nowFunc()
	return &Item{
		id:          uuid.New(),
		storeID:     p.StoreID,
		categoryID:  p.CategoryID,
		code:        code,
		name:        name,
		description: description,
		price:       p.Price,
		isActive:    true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// RestoreItem recreates an item from persistence without validation.
func RestoreItem(
	id, storeID, categoryID uuid.UUID,
	code, name, description string,
	price money.Amount,
	isActive bool,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
) *Item {
	return &Item{
		id:          id,
		storeID:     storeID,
		categoryID:  categoryID,
		code:        code,
		name:        name,
		description: description,
		price:       price,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		deletedAt:   deletedAt,
	}
}

// --- Getters ---

func (i *Item) ID() uuid.UUID         { return i.id }
func (i *Item) StoreID() uuid.UUID    { return i.storeID }
func (i *Item) CategoryID() uuid.UUID { return i.categoryID }
func (i *Item) Code() string          { return i.code }
func (i *Item) Name() string          { return i.name }
func (i *Item) Description() string   { return i.description }
func (i *Item) Price() money.Amount   { return i.price }
func (i *Item) CreatedAt() time.Time  { return i.createdAt }
func (i *Item) UpdatedAt() time.Time  { return i.updatedAt }
func (i *Item) DeletedAt() *time.Time { return i.deletedAt }
func (i *Item) IsDeleted() bool       { return i.deletedAt != nil }

// IsActive reports the active flag. It survives a soft delete and restore.
func (i *Item) IsActive() bool { return i.isActive }

// IsAvailable returns true if the item can be ordered.
func (i *Item) IsAvailable() bool { return !i.IsDeleted() && i.isActive }

// Update applies the set fields of p.
func (i *Item) Update(p ItemPatch) error {
	if i.IsDeleted() {
		return ErrItemDeleted
	}

	name, description, price, categoryID := i.name, i.description, i.price, i.categoryID
	var err error
	if v, ok := p.Name.Value(); ok {
		if name, err = itemName(v); err != nil {
			return err
		}
	}
	if v, ok := p.Description.Value(); ok {
		if description, err = itemDescription(v); err != nil {
			return err
		}
	}
	if v, ok := p.Price.Value(); ok {
		if v.IsZero() {
			return ErrInvalidPrice
		}
		price = v
	}
	if v, ok := p.CategoryID.Value(); ok {
		if v == uuid.Nil {
			return ErrMissingCategory
		}
		categoryID = v
	}

	i.name, i.description, i.price, i.categoryID = name, description, price, categoryID
	i.touch()
	return nil
}

// Deactivate hides a live item from ordering.
func (i *Item) Deactivate() error {
	if i.IsDeleted() {
		return ErrItemDeleted
	}
	if !i.isActive {
		return ErrItemInactive
	}
	i.isActive = false
	i.touch()
	return nil
}

// Reactivate makes a deactivated item orderable again.
func (i *Item) Reactivate() error {
	if i.IsDeleted() {
		return ErrItemDeleted
	}
	if i.isActive {
		return ErrItemActive
	}
	i.isActive = true
	i.touch()
	return nil
}

// SoftDelete marks the item deleted.
func (i *Item) SoftDelete() error {
	if i.IsDeleted() {
		return ErrItemDeleted
	}
	now := nowFunc()
	i.deletedAt = &now
	i.touch()
	return nil
}

// RestoreDeletion undoes SoftDelete.
func (i *Item) RestoreDeletion() error {
	if !i.IsDeleted() {
		return ErrItemNotDeleted
	}
	i.deletedAt = nil
	i.touch()
	return nil
}

func (i *Item) touch() {
	i.updatedAt = later(nowFunc(), i.updatedAt)
}

func itemName(v string) (string, error) {
	v = strings.TrimSpace(v)
	if n := utf8.RuneCountInString(v); n == 0 || n > 128 {
		return "", ErrInvalidItemName
	}
	return v, nil
}

func itemDescription(v string) (string, error) {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > 1024 {
		return "", ErrInvalidDescription
	}
	return v, nil
}
