package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/shared/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T, priceCents int64, qty int) *OrderItem {
	t.Helper()
	item, err := NewOrderItem(uuid.New(), "Item", money.MustFromCents(priceCents), qty)
	require.NoError(t, err)
	return item
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), nil, "A1B2C3", []*OrderItem{
		newTestItem(t, 2500, 2),
		newTestItem(t, 4800, 1),
	})
	require.NoError(t, err)
	return o
}

// orderIn returns an order driven forward to the requested status.
func orderIn(t *testing.T, status Status) *Order {
	t.Helper()
	o := newTestOrder(t)
	steps := map[Status][]func() error{
		StatusPaymentPending: nil,
		StatusPaid:           {o.MarkPaid},
		StatusPreparing:      {o.MarkPaid, o.StartPreparing},
		StatusReady:          {o.MarkPaid, o.StartPreparing, o.MarkReady},
		StatusCompleted:      {o.MarkPaid, o.StartPreparing, o.MarkReady, o.Complete},
		StatusCanceled:       {o.Cancel},
	}
	for _, step := range steps[status] {
		require.NoError(t, step())
	}
	require.Equal(t, status, o.Status())
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("computes total from items", func(t *testing.T) {
		o := newTestOrder(t)

		assert.Equal(t, StatusPaymentPending, o.Status())
		assert.Equal(t, int64(9800), o.TotalInCents())
		assert.Len(t, o.Items(), 2)
		assert.Equal(t, o.CreatedAt(), o.UpdatedAt())
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), nil, "X", nil)
		assert.ErrorIs(t, err, ErrEmptyItems)
	})

	t.Run("rejects missing store", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, nil, "X", []*OrderItem{newTestItem(t, 100, 1)})
		assert.ErrorIs(t, err, ErrMissingStore)
	})

	t.Run("rejects invalid code", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), nil, "  ", []*OrderItem{newTestItem(t, 100, 1)})
		assert.ErrorIs(t, err, ErrInvalidCode)

		_, err = NewOrder(uuid.New(), nil, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", []*OrderItem{newTestItem(t, 100, 1)})
		assert.ErrorIs(t, err, ErrInvalidCode)
	})
}

func TestNewOrderItem(t *testing.T) {
	_, err := NewOrderItem(uuid.New(), "Burger", money.MustFromCents(100), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrderItem(uuid.New(), " ", money.MustFromCents(100), 1)
	assert.ErrorIs(t, err, ErrMissingItemName)

	_, err = NewOrderItem(uuid.Nil, "Burger", money.MustFromCents(100), 1)
	assert.ErrorIs(t, err, ErrMissingItemRef)

	item, err := NewOrderItem(uuid.New(), "Burger", money.MustFromCents(1250), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3750), item.Subtotal().Cents())
	assert.True(t, item.IsActive())

	voided := item.Voided()
	assert.False(t, voided.IsActive())
	assert.True(t, item.IsActive(), "original line is unchanged")
}

func TestOrderStateMachine(t *testing.T) {
	type transition struct {
		name   string
		apply  func(o *Order) error
		target Status
	}
	all := []transition{
		{"MarkPaid", (*Order).MarkPaid, StatusPaid},
		{"StartPreparing", (*Order).StartPreparing, StatusPreparing},
		{"MarkReady", (*Order).MarkReady, StatusReady},
		{"Complete", (*Order).Complete, StatusCompleted},
		{"Cancel", (*Order).Cancel, StatusCanceled},
	}

	legal := map[Status]map[string]bool{
		StatusPaymentPending: {"MarkPaid": true, "Cancel": true},
		StatusPaid:           {"StartPreparing": true, "Cancel": true},
		StatusPreparing:      {"MarkReady": true},
		StatusReady:          {"Complete": true},
		StatusCompleted:      {},
		StatusCanceled:       {},
	}

	for from, allowed := range legal {
		for _, tr := range all {
			from, tr := from, tr
			t.Run(string(from)+"/"+tr.name, func(t *testing.T) {
				o := orderIn(t, from)
				before := o.UpdatedAt()

				err := tr.apply(o)
				if allowed[tr.name] {
					require.NoError(t, err)
					assert.Equal(t, tr.target, o.Status())
					assert.False(t, o.UpdatedAt().Before(before))
					return
				}
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, from, o.Status())
				assert.Equal(t, before, o.UpdatedAt())
			})
		}
	}
}

func TestOrderTransitionsAreNotIdempotent(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.MarkPaid())

	err := o.MarkPaid()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPaid, o.Status())
}

func TestCancelPreparingOrder(t *testing.T) {
	o := orderIn(t, StatusPreparing)

	err := o.Cancel()

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, o.CanCancel())
	assert.Equal(t, StatusPreparing, o.Status())
}

func TestReplaceItems(t *testing.T) {
	t.Run("recomputes total while pending", func(t *testing.T) {
		o := newTestOrder(t)
		replacement := []*OrderItem{newTestItem(t, 1000, 3), newTestItem(t, 250, 2)}

		require.NoError(t, o.ReplaceItems(replacement))

		assert.Equal(t, int64(3500), o.TotalInCents())
		assert.Len(t, o.Items(), 2)
	})

	t.Run("voided lines do not count", func(t *testing.T) {
		o := newTestOrder(t)
		kept := newTestItem(t, 1000, 1)
		require.NoError(t, o.ReplaceItems([]*OrderItem{kept, newTestItem(t, 500, 2).Voided()}))

		assert.Equal(t, int64(1000), o.TotalInCents())
	})

	t.Run("locked after payment", func(t *testing.T) {
		o := orderIn(t, StatusPaid)

		err := o.ReplaceItems([]*OrderItem{newTestItem(t, 100, 1)})

		assert.ErrorIs(t, err, ErrItemsLocked)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, int64(9800), o.TotalInCents())
	})

	t.Run("requires items", func(t *testing.T) {
		o := newTestOrder(t)
		assert.ErrorIs(t, o.ReplaceItems(nil), ErrEmptyItems)
	})

	t.Run("caller slice is not aliased", func(t *testing.T) {
		o := newTestOrder(t)
		items := []*OrderItem{newTestItem(t, 100, 1)}
		require.NoError(t, o.ReplaceItems(items))

		items[0] = newTestItem(t, 999, 9)

		assert.Equal(t, int64(100), o.TotalInCents())
		assert.Equal(t, int64(100), o.Items()[0].Subtotal().Cents())
	})
}

func TestUpdatedAtNeverMovesBackwards(t *testing.T) {
	o := newTestOrder(t)
	created := o.UpdatedAt()

	restore := nowFunc
	defer func() { nowFunc = restore }()
	nowFunc = func() time.Time { return created.Add(-time.Hour) }

	require.NoError(t, o.MarkPaid())
	assert.Equal(t, created, o.UpdatedAt())
}

func TestRestoreOrderDerivesTotal(t *testing.T) {
	items := []*OrderItem{
		RestoreOrderItem(uuid.New(), uuid.New(), "A", money.MustFromCents(300), 2, ItemStatusActive),
		RestoreOrderItem(uuid.New(), uuid.New(), "B", money.MustFromCents(700), 1, ItemStatusVoided),
	}
	now := time.Now()

	o := RestoreOrder(uuid.New(), uuid.New(), nil, "R1", StatusPreparing, items, now, now)

	assert.Equal(t, int64(600), o.TotalInCents())
	assert.Equal(t, StatusPreparing, o.Status())
}

func TestStoredStatus(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.MarkPaid())
	require.NoError(t, o.StartPreparing())

	assert.Equal(t, StatusPaymentPending, o.StoredStatus(), "unchanged until saved")

	o.MarkStored()
	assert.Equal(t, StatusPreparing, o.StoredStatus())

	restored := RestoreOrder(uuid.New(), uuid.New(), nil, "R1", StatusReady, nil, time.Now(), time.Now())
	assert.Equal(t, StatusReady, restored.StoredStatus())
}
