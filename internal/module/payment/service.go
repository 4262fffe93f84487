package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	orderdomain "github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/module/payment/provider"
	"github.com/storefront/server/internal/shared/money"
	"github.com/storefront/server/internal/utils/validation"
	"go.uber.org/zap"
)

// CreatePIXPaymentInput is the input of CreatePIXPayment.
type CreatePIXPaymentInput struct {
	OrderID       uuid.UUID `validate:"required"`
	AmountInCents int64     `validate:"gt=0"`
}

// CreateWeChatJsapiPaymentInput is the input of CreateWeChatJsapiPayment.
type CreateWeChatJsapiPaymentInput struct {
	OrderID       uuid.UUID `validate:"required"`
	AmountInCents int64     `validate:"gt=0"`
	OpenID        string    `validate:"required,max=128"`
}

// PaymentResult is a payment plus whatever the client needs to complete it.
type PaymentResult struct {
	Payment      *domain.Payment
	QRCodeBase64 string
	InvokeParams *provider.InvokeParams
	// Existing is true when a live payment for the order was returned
	// instead of creating a new one.
	Existing bool
}

// Service implements payment operations.
type Service struct {
	repo       Repository
	orders     OrderStore
	registry   *ProviderRegistry
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	orders OrderStore,
	registry *ProviderRegistry,
	reconciler *Reconciler,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		orders:     orders,
		registry:   registry,
		reconciler: reconciler,
		logger:     logger,
	}
}

// CreatePIXPayment creates a PIX charge for a pending order.
func (s *Service) CreatePIXPayment(ctx context.Context, in CreatePIXPaymentInput) (*PaymentResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	amount, err := s.payableAmount(ctx, in.OrderID, in.AmountInCents)
	if err != nil {
		return nil, err
	}

	if live, err := s.livePayment(ctx, in.OrderID); err != nil || live != nil {
		return live, err
	}

	gateway, err := s.registry.PIX()
	if err != nil {
		return nil, err
	}

	charge, err := gateway.CreatePIXPayment(ctx, in.OrderID, in.AmountInCents)
	if err != nil {
		s.logger.Error("pix gateway rejected payment",
			zap.String("order_id", in.OrderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	pay, err := s.persist(ctx, in.OrderID, domain.ProviderPIX, amount, charge.ExternalID, charge.QRCode)
	if err != nil {
		return nil, err
	}

	return &PaymentResult{Payment: pay, QRCodeBase64: charge.QRCodeBase64}, nil
}

// CreateWeChatJsapiPayment creates a WeChat JSAPI prepay order for a pending
// order and returns the signed invoke params.
func (s *Service) CreateWeChatJsapiPayment(ctx context.Context, in CreateWeChatJsapiPaymentInput) (*PaymentResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	amount, err := s.payableAmount(ctx, in.OrderID, in.AmountInCents)
	if err != nil {
		return nil, err
	}

	gateway, err := s.registry.WechatJsapi()
	if err != nil {
		return nil, err
	}

	live, err := s.livePayment(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		if live.Payment.Provider() == domain.ProviderWechat {
			if live.InvokeParams, err = gateway.ReissueInvokeParams(live.Payment.QRCode()); err != nil {
				return nil, fmt.Errorf("reissue invoke params: %w", err)
			}
		}
		return live, nil
	}

	prepay, err := gateway.CreateWeChatJsapiPayment(ctx, in.OrderID, in.AmountInCents, in.OpenID)
	if err != nil {
		s.logger.Error("wechat gateway rejected payment",
			zap.String("order_id", in.OrderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	pay, err := s.persist(ctx, in.OrderID, domain.ProviderWechat, amount, prepay.ExternalID, prepay.Package)
	if err != nil {
		return nil, err
	}

	return &PaymentResult{Payment: pay, InvokeParams: prepay.Params}, nil
}

// GetPayment returns a payment by ID.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, id)
}

// SyncStatus asks the provider for the payment's current status and
// reconciles it. It is the polling fallback for missed webhooks.
// A status the payment or its order cannot accept is logged, and the payment
// is returned as stored.
func (s *Service) SyncStatus(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	pay, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pay.Status().IsTerminal() {
		return pay, nil
	}

	gateway, err := s.registry.Get(pay.Provider().String())
	if err != nil {
		return nil, err
	}

	status, err := gateway.GetPaymentStatusByExternalID(ctx, pay.ExternalID())
	if err != nil {
		return nil, fmt.Errorf("query payment status: %w", err)
	}

	out, err := s.reconciler.Reconcile(ctx, gateway.Name().String(), pay.ExternalID(), status)
	if errors.Is(err, ErrReconcileConflict) {
		s.logger.Error("payment sync could not be applied",
			zap.String("payment_id", id.String()),
			zap.String("provider", gateway.Name().String()),
			zap.String("provider_status", status),
			zap.Error(err),
		)
		return s.repo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !out.Changed {
		return pay, nil
	}
	return s.repo.FindByID(ctx, id)
}

// payableAmount checks that the order awaits payment of exactly amountInCents.
func (s *Service) payableAmount(ctx context.Context, orderID uuid.UUID, amountInCents int64) (money.Amount, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return money.Amount{}, err
	}
	if order.Status() != orderdomain.StatusPaymentPending {
		return money.Amount{}, fmt.Errorf("%w: order %s is %s", ErrOrderNotPayable, orderID, order.Status())
	}
	if order.TotalInCents() != amountInCents {
		return money.Amount{}, fmt.Errorf("%w: order total is %s", ErrAmountMismatch, order.Total())
	}
	return order.Total(), nil
}

func (s *Service) livePayment(ctx context.Context, orderID uuid.UUID) (*PaymentResult, error) {
	pay, err := s.repo.FindLiveByOrderID(ctx, orderID)
	if errors.Is(err, ErrPaymentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: pay, Existing: true}, nil
}

// persist stores a payment the gateway has accepted. A concurrent request that
// stored the same charge first wins and its payment is returned.
func (s *Service) persist(ctx context.Context, orderID uuid.UUID, p domain.Provider, amount money.Amount, externalID, qrCode string) (*domain.Payment, error) {
	pay, err := domain.NewPayment(orderID, p, amount, externalID, qrCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrGatewayRejected, err)
	}

	err = s.repo.Create(ctx, pay)
	if errors.Is(err, ErrDuplicateExternalID) {
		return s.repo.FindByExternalID(ctx, externalID)
	}
	if err != nil {
		s.logger.Error("failed to store accepted payment",
			zap.String("order_id", orderID.String()),
			zap.String("provider", p.String()),
			zap.String("external_id", externalID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("payment created",
		zap.String("payment_id", pay.ID().String()),
		zap.String("order_id", orderID.String()),
		zap.String("provider", p.String()),
		zap.String("external_id", externalID),
	)
	return pay, nil
}
