package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/module/payment/entity"
	"github.com/storefront/server/internal/shared/database/databasetest"
	"github.com/storefront/server/internal/shared/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepository(t *testing.T) (*gorm.DB, Repository) {
	t.Helper()
	db := databasetest.Open(t, &entity.PaymentEntity{})
	return db, NewRepository(db)
}

func newPayment(t *testing.T, orderID uuid.UUID, externalID string) *domain.Payment {
	t.Helper()
	pay, err := domain.NewPayment(orderID, domain.ProviderPIX, money.MustFromCents(9800), externalID, "00020126...")
	require.NoError(t, err)
	return pay
}

func TestRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	pay := newPayment(t, uuid.New(), "1234567890")

	require.NoError(t, repo.Create(ctx, pay))

	byID, err := repo.FindByID(ctx, pay.ID())
	require.NoError(t, err)
	assert.Equal(t, pay.OrderID(), byID.OrderID())
	assert.Equal(t, domain.StatusPending, byID.Status())
	assert.Equal(t, int64(9800), byID.AmountInCents())
	assert.Equal(t, "00020126...", byID.QRCode())

	byExternal, err := repo.FindByExternalID(ctx, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, pay.ID(), byExternal.ID())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	_, err = repo.FindByExternalID(ctx, "missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestRepository_Create_DuplicateExternalID(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	require.NoError(t, repo.Create(ctx, newPayment(t, uuid.New(), "1234567890")))

	err := repo.Create(ctx, newPayment(t, uuid.New(), "1234567890"))

	assert.ErrorIs(t, err, ErrDuplicateExternalID)
}

func TestRepository_FindLiveByOrderID(t *testing.T) {
	ctx := context.Background()
	db, repo := setupRepository(t)
	orderID := uuid.New()

	_, err := repo.FindLiveByOrderID(ctx, orderID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	rejected := newPayment(t, orderID, "ext-rejected")
	require.NoError(t, repo.Create(ctx, rejected))
	_, err = repo.CompareAndSwapStatus(ctx, rejected.ID(), domain.StatusPending, domain.StatusRejected)
	require.NoError(t, err)

	_, err = repo.FindLiveByOrderID(ctx, orderID)
	assert.ErrorIs(t, err, ErrPaymentNotFound, "rejected payments are not live")

	older := newPayment(t, orderID, "ext-older")
	newer := newPayment(t, orderID, "ext-newer")
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, db.Model(&entity.PaymentEntity{}).Where("id = ?", older.ID()).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	live, err := repo.FindLiveByOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID(), live.ID())
}

func TestRepository_CompareAndSwapStatus(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepository(t)
	pay := newPayment(t, uuid.New(), "1234567890")
	require.NoError(t, repo.Create(ctx, pay))

	swapped, err := repo.CompareAndSwapStatus(ctx, pay.ID(), domain.StatusPending, domain.StatusApproved)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.CompareAndSwapStatus(ctx, pay.ID(), domain.StatusPending, domain.StatusRejected)
	require.NoError(t, err)
	assert.False(t, swapped, "stale expected status")

	got, err := repo.FindByID(ctx, pay.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status())
	assert.False(t, got.UpdatedAt().Before(pay.UpdatedAt()))
}
