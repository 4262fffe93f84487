package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
	"github.com/storefront/server/internal/utils/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *Item {
	t.Helper()
	item, err := NewItem(ItemParams{
		StoreID:    uuid.New(),
		CategoryID: uuid.New(),
		Code:       "P001",
		Name:       "Espresso",
		Price:      money.MustFromCents(2500),
	})
	require.NoError(t, err)
	return item
}

func TestNewItem(t *testing.T) {
	t.Run("valid item is available", func(t *testing.T) {
		item := newTestItem(t)
		assert.True(t, item.IsAvailable())
		assert.Equal(t, "25.00", item.Price().String())
	})

	t.Run("rejects zero price", func(t *testing.T) {
		_, err := NewItem(ItemParams{StoreID: uuid.New(), CategoryID: uuid.New(), Code: "P001", Name: "Espresso"})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("requires a category", func(t *testing.T) {
		_, err := NewItem(ItemParams{StoreID: uuid.New(), Code: "P001", Name: "Espresso", Price: money.MustFromCents(1)})
		assert.ErrorIs(t, err, ErrMissingCategory)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := NewItem(ItemParams{StoreID: uuid.New(), CategoryID: uuid.New(), Code: "P001", Name: "  ", Price: money.MustFromCents(1)})
		assert.ErrorIs(t, err, ErrInvalidItemName)
	})
}

func TestItem_Update(t *testing.T) {
	t.Run("applies set fields", func(t *testing.T) {
		item := newTestItem(t)
		category := uuid.New()

		err := item.Update(ItemPatch{
			Price:      patch.Set(money.MustFromCents(2700)),
			CategoryID: patch.Set(category),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(2700), item.Price().Cents())
		assert.Equal(t, category, item.CategoryID())
		assert.Equal(t, "Espresso", item.Name())
	})

	t.Run("invalid field leaves item untouched", func(t *testing.T) {
		item := newTestItem(t)

		err := item.Update(ItemPatch{
			Name:  patch.Set("Latte"),
			Price: patch.Set(money.Amount{}),
		})

		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.Equal(t, "Espresso", item.Name())
	})

	t.Run("deleted item cannot change", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.SoftDelete())

		assert.ErrorIs(t, item.Update(ItemPatch{Name: patch.Set("Latte")}), ErrItemDeleted)
	})
}

func TestItem_Lifecycle(t *testing.T) {
	item := newTestItem(t)

	assert.ErrorIs(t, item.Reactivate(), ErrItemActive)
	require.NoError(t, item.Deactivate())
	assert.False(t, item.IsAvailable())
	assert.ErrorIs(t, item.Deactivate(), ErrItemInactive)
	require.NoError(t, item.Reactivate())
	assert.True(t, item.IsAvailable())

	require.NoError(t, item.SoftDelete())
	assert.False(t, item.IsAvailable())
	assert.True(t, item.IsActive(), "active flag is kept while deleted")
	assert.ErrorIs(t, item.SoftDelete(), ErrItemDeleted)
	assert.ErrorIs(t, item.Deactivate(), ErrItemDeleted)
	assert.ErrorIs(t, item.Reactivate(), ErrItemDeleted)

	require.NoError(t, item.RestoreDeletion())
	assert.True(t, item.IsAvailable())
	assert.ErrorIs(t, item.RestoreDeletion(), ErrItemNotDeleted)
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory(uuid.New(), " Drinks ")
	require.NoError(t, err)
	assert.Equal(t, "Drinks", c.Name())

	_, err = NewCategory(uuid.Nil, "Drinks")
	assert.ErrorIs(t, err, ErrMissingStore)
	_, err = NewCategory(uuid.New(), "")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
