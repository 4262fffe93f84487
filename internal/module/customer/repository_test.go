package customer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/customer/domain"
	"github.com/storefront/server/internal/module/customer/entity"
	"github.com/storefront/server/internal/shared/database/databasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(databasetest.Open(t, &entity.CustomerEntity{}))

	ana, err := domain.NewCustomer("Ana", "+5511999990000")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, ana))

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, ana.ID())
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.Nickname())
	})

	t.Run("find by phone", func(t *testing.T) {
		got, err := repo.FindByPhone(ctx, "+5511999990000")
		require.NoError(t, err)
		assert.Equal(t, ana.ID(), got.ID())
	})

	t.Run("duplicate phone", func(t *testing.T) {
		dup, err := domain.NewCustomer("Other", "+5511999990000")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrPhoneTaken)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrCustomerNotFound)
		_, err = repo.FindByPhone(ctx, "+5511000000000")
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}
