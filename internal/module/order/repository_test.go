package order

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/module/order/entity"
	"github.com/storefront/server/internal/shared/database/databasetest"
	"github.com/storefront/server/internal/shared/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepository(t *testing.T) (*gorm.DB, Repository) {
	t.Helper()
	db := databasetest.Open(t, &entity.OrderEntity{}, &entity.OrderItemEntity{})
	return db, NewRepository(db)
}

func newLine(t *testing.T, name string, cents int64, qty int) *domain.OrderItem {
	t.Helper()
	item, err := domain.NewOrderItem(uuid.New(), name, money.MustFromCents(cents), qty)
	require.NoError(t, err)
	return item
}

func newPendingOrder(t *testing.T) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(uuid.New(), nil, "ORD00001", []*domain.OrderItem{
		newLine(t, "P001", 2500, 2),
		newLine(t, "P002", 4800, 1),
	})
	require.NoError(t, err)
	return o
}

func TestRepository_CreateWithItems(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	o := newPendingOrder(t)

	require.NoError(t, repo.CreateWithItems(ctx, o))

	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, got.Status())
	assert.Equal(t, int64(9800), got.TotalInCents())
	require.Len(t, got.Items(), 2)
	assert.Equal(t, "P001", got.Items()[0].Name())
	assert.Equal(t, "P002", got.Items()[1].Name())

	exists, err := repo.ExistsByCode(ctx, o.StoreID(), "ORD00001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_CreateWithItems_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	db, repo := setupRepository(t)
	first := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, first))

	dup, err := domain.NewOrder(first.StoreID(), nil, first.Code(), []*domain.OrderItem{newLine(t, "X", 100, 1)})
	require.NoError(t, err)

	err = repo.CreateWithItems(ctx, dup)

	assert.ErrorIs(t, err, ErrOrderCodeTaken)
	var items int64
	require.NoError(t, db.Model(&entity.OrderItemEntity{}).Where("order_id = ?", dup.ID()).Count(&items).Error)
	assert.Zero(t, items, "no items of the rejected order are visible")
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	_, repo := setupRepository(t)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRepository_UpdateWithoutItems(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	o := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))

	require.NoError(t, o.MarkPaid())
	require.NoError(t, repo.UpdateWithoutItems(ctx, o))

	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status())
	assert.Len(t, got.Items(), 2)

	t.Run("missing order", func(t *testing.T) {
		ghost := newPendingOrder(t)
		assert.ErrorIs(t, repo.UpdateWithoutItems(ctx, ghost), ErrOrderNotFound)
	})
}

func TestRepository_ReadyIsStoredAsAwaitingResult(t *testing.T) {
	ctx := context.Background()
	db, repo := setupRepository(t)
	o := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))
	require.NoError(t, o.MarkPaid())
	require.NoError(t, o.StartPreparing())
	require.NoError(t, o.MarkReady())
	require.NoError(t, repo.UpdateWithoutItems(ctx, o))

	var row entity.OrderEntity
	require.NoError(t, db.First(&row, "id = ?", o.ID()).Error)
	assert.Equal(t, entity.StorageAwaitingResult, row.Status)

	require.NoError(t, db.Model(&entity.OrderEntity{}).Where("id = ?", o.ID()).Update("status", entity.StorageDelivering).Error)
	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status())

	t.Run("a delivering row can still be completed", func(t *testing.T) {
		require.NoError(t, got.Complete())
		require.NoError(t, repo.UpdateWithoutItems(ctx, got))

		done, err := repo.FindByID(ctx, o.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, done.Status())
	})
}

func TestRepository_UpdateWithoutItems_RejectsStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	o := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))

	first, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)

	require.NoError(t, first.Cancel())
	require.NoError(t, repo.UpdateWithoutItems(ctx, first))

	require.NoError(t, second.MarkPaid())
	err = repo.UpdateWithoutItems(ctx, second)

	assert.ErrorIs(t, err, ErrOrderChanged)
	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status())

	t.Run("the winning snapshot keeps writing", func(t *testing.T) {
		assert.Equal(t, domain.StatusCanceled, first.StoredStatus())
		assert.ErrorIs(t, first.Cancel(), domain.ErrInvalidTransition)
	})
}

func TestRepository_UpdateWithItems(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	o := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))

	require.NoError(t, o.ReplaceItems([]*domain.OrderItem{newLine(t, "P003", 1000, 3)}))
	require.NoError(t, repo.UpdateWithItems(ctx, o))

	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	require.Len(t, got.Items(), 1)
	assert.Equal(t, "P003", got.Items()[0].Name())
	assert.Equal(t, int64(3000), got.TotalInCents())
}

func TestRepository_UpdateWithItems_RollsBackOnInsertFailure(t *testing.T) {
	ctx := context.Background()
	db, repo := setupRepository(t)
	o := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))

	var failInserts atomic.Bool
	injected := errors.New("injected insert failure")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_item_insert", func(tx *gorm.DB) {
		if failInserts.Load() && tx.Statement.Table == "order_items" {
			_ = tx.AddError(injected)
		}
	}))

	require.NoError(t, o.ReplaceItems([]*domain.OrderItem{newLine(t, "P003", 1000, 3)}))
	failInserts.Store(true)

	err := repo.UpdateWithItems(ctx, o)

	require.Error(t, err)
	assert.ErrorIs(t, err, injected)

	failInserts.Store(false)
	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	require.Len(t, got.Items(), 2, "previous item set is intact")
	assert.Equal(t, "P001", got.Items()[0].Name())
	assert.Equal(t, int64(9800), got.TotalInCents())
}

func TestRepository_UpdateWithItems_RejectsPaidOrder(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	o := newPendingOrder(t)
	require.NoError(t, repo.CreateWithItems(ctx, o))

	stale, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)

	require.NoError(t, o.MarkPaid())
	require.NoError(t, repo.UpdateWithoutItems(ctx, o))

	require.NoError(t, stale.ReplaceItems([]*domain.OrderItem{newLine(t, "P003", 1000, 1)}))
	err = repo.UpdateWithItems(ctx, stale)

	assert.ErrorIs(t, err, ErrOrderChanged)
	got, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status())
	assert.Len(t, got.Items(), 2)
}
