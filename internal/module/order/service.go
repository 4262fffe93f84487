package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/utils/random"
	"github.com/storefront/server/internal/utils/validation"
	"go.uber.org/zap"
)

const (
	orderCodeLength = 8
	maxCodeAttempts = 5
)

// LineInput is one requested order line.
type LineInput struct {
	ItemID   uuid.UUID `validate:"required"`
	Quantity int       `validate:"min=1,max=999"`
}

// CreateOrderInput is the input of CreateOrder.
type CreateOrderInput struct {
	StoreID    uuid.UUID `validate:"required"`
	CustomerID *uuid.UUID
	Items      []LineInput `validate:"required,min=1,max=100,dive"`
}

// ReplaceItemsInput is the input of ReplaceItems.
type ReplaceItemsInput struct {
	OrderID uuid.UUID   `validate:"required"`
	Items   []LineInput `validate:"required,min=1,max=100,dive"`
}

// Service implements order operations.
type Service struct {
	repo     Repository
	items    ItemReader
	payments PaymentReader
	logger   *zap.Logger
	newCode  func() (string, error)
}

// NewService creates a new order service.
func NewService(repo Repository, items ItemReader, payments PaymentReader, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		items:    items,
		payments: payments,
		logger:   logger,
		newCode: func() (string, error) {
			return random.UpperAlphaNum(orderCodeLength)
		},
	}
}

// CreateOrder snapshots the requested catalog items into a new order awaiting payment.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	lines, err := s.buildLines(ctx, in.StoreID, in.Items)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate order code: %w", err)
		}

		taken, err := s.repo.ExistsByCode(ctx, in.StoreID, code)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		order, err := domain.NewOrder(in.StoreID, in.CustomerID, code, lines)
		if err != nil {
			return nil, err
		}

		err = s.repo.CreateWithItems(ctx, order)
		if errors.Is(err, ErrOrderCodeTaken) {
			// Lost a race with another checkout for the same code.
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("order created",
			zap.String("order_id", order.ID().String()),
			zap.String("store_id", order.StoreID().String()),
			zap.String("code", order.Code()),
			zap.Int64("total_cents", order.TotalInCents()),
		)
		return order, nil
	}

	return nil, ErrOrderCodeTaken
}

// GetOrder returns an order by ID.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// ReplaceItems swaps the whole item set of an order that is still awaiting
// payment. A charge already issued for the old total locks the items too.
func (s *Service) ReplaceItems(ctx context.Context, in ReplaceItemsInput) (*domain.Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaymentPending() {
		return nil, domain.ErrItemsLocked
	}
	live, err := s.payments.HasLivePayment(ctx, order.ID())
	if err != nil {
		return nil, fmt.Errorf("check payments: %w", err)
	}
	if live {
		return nil, ErrPaymentInFlight
	}

	lines, err := s.buildLines(ctx, order.StoreID(), in.Items)
	if err != nil {
		return nil, err
	}
	if err := order.ReplaceItems(lines); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateWithItems(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order items replaced",
		zap.String("order_id", order.ID().String()),
		zap.Int("lines", len(lines)),
		zap.Int64("total_cents", order.TotalInCents()),
	)
	return order, nil
}

// StartPreparing moves a paid order into the kitchen.
func (s *Service) StartPreparing(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.transition(ctx, orderID, (*domain.Order).StartPreparing)
}

// MarkReady flags a preparing order as ready for pickup.
func (s *Service) MarkReady(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.transition(ctx, orderID, (*domain.Order).MarkReady)
}

// Complete closes a ready order.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.transition(ctx, orderID, (*domain.Order).Complete)
}

// Cancel cancels an order that has not started preparation.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.transition(ctx, orderID, (*domain.Order).Cancel)
}

func (s *Service) transition(ctx context.Context, orderID uuid.UUID, apply func(*domain.Order) error) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status()
	if err := apply(order); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateWithoutItems(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID().String()),
		zap.String("from", from.String()),
		zap.String("to", order.Status().String()),
	)
	return order, nil
}

func (s *Service) buildLines(ctx context.Context, storeID uuid.UUID, in []LineInput) ([]*domain.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.ItemID)
	}

	snapshots, err := s.items.ItemSnapshots(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load catalog items: %w", err)
	}

	lines := make([]*domain.OrderItem, 0, len(in))
	for _, l := range in {
		snap, ok := snapshots[l.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, l.ItemID)
		}
		if snap.StoreID != storeID {
			return nil, fmt.Errorf("%w: %s", ErrItemWrongStore, l.ItemID)
		}
		if !snap.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemNotOrderable, l.ItemID)
		}

		line, err := domain.NewOrderItem(snap.ID, snap.Name, snap.Price, l.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
