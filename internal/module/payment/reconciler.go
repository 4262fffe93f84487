package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/server/internal/module/order"
	orderdomain "github.com/storefront/server/internal/module/order/domain"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/module/payment/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultReconcileAttempts is used when ReconcilerConfig.Attempts is zero.
const DefaultReconcileAttempts = 3

// Reconcile results reported to the Observer.
const (
	ResultApplied       = "applied"
	ResultNoop          = "noop"
	ResultStale         = "stale"
	ResultConflict      = "conflict"
	ResultNotFound      = "not_found"
	ResultUnknownStatus = "unknown_status"
	ResultError         = "error"
)

// Outcome describes what a reconciliation did.
type Outcome struct {
	PaymentID string
	OrderID   string
	From      domain.Status
	To        domain.Status
	// Changed is true when this call wrote the new status.
	Changed bool
	// Stale is true when the provider reported a status older than the stored one.
	Stale bool
}

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	Attempts int
	Observer Observer
}

// Reconciler applies provider status reports to payments and their orders.
type Reconciler struct {
	registry *ProviderRegistry
	payments Repository
	orders   OrderStore
	tx       Transactor
	logger   *zap.Logger
	observer Observer
	attempts int
	group    singleflight.Group
}

// NewReconciler creates a new reconciler.
func NewReconciler(
	registry *ProviderRegistry,
	payments Repository,
	orders OrderStore,
	tx Transactor,
	logger *zap.Logger,
	cfg ReconcilerConfig,
) *Reconciler {
	if cfg.Attempts < 1 {
		cfg.Attempts = DefaultReconcileAttempts
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Reconciler{
		registry: registry,
		payments: payments,
		orders:   orders,
		tx:       tx,
		logger:   logger,
		observer: cfg.Observer,
		attempts: cfg.Attempts,
	}
}

// Reconcile moves the payment identified by externalID to the internal status
// that providerStatus maps to, and moves its order along with it.
//
// Reporting the same status twice is a no-op. Concurrent calls for the same
// payment and status in this process share one execution; across processes the
// payment row is updated with a compare-and-swap so the order transitions once.
func (r *Reconciler) Reconcile(ctx context.Context, providerName, externalID, providerStatus string) (*Outcome, error) {
	gateway, err := r.registry.Get(providerName)
	if err != nil {
		return nil, err
	}
	name := gateway.Name().String()

	target, lookupErr := gateway.Statuses().Lookup(providerStatus)

	key := externalID + "|" + providerStatus
	if lookupErr == nil {
		key = externalID + "|" + target.String()
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.reconcile(ctx, gateway.Name(), externalID, target, lookupErr)
	})
	r.observer.ObserveReconcile(name, resultOf(v, err))
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

func (r *Reconciler) reconcile(ctx context.Context, name domain.Provider, externalID string, target domain.Status, lookupErr error) (*Outcome, error) {
	pay, err := r.payments.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if pay.Provider() != name {
		return nil, fmt.Errorf("%w: %s payment %s reported by %s", ErrPaymentNotFound, pay.Provider(), externalID, name)
	}
	if lookupErr != nil {
		return nil, lookupErr
	}

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			if pay, err = r.payments.FindByID(ctx, pay.ID()); err != nil {
				return nil, err
			}
		}

		out := &Outcome{
			PaymentID: pay.ID().String(),
			OrderID:   pay.OrderID().String(),
			From:      pay.Status(),
			To:        target,
		}

		switch {
		case pay.Status() == target:
			return out, nil
		case target == domain.StatusPending:
			out.Stale = true
			return out, nil
		case !pay.Status().CanTransitionTo(target):
			return nil, fmt.Errorf("%w: payment %s is %s, provider reports %s",
				ErrReconcileConflict, pay.ID(), pay.Status(), target)
		}

		swapped, err := r.apply(ctx, pay, target)
		if swapped {
			out.Changed = true
			r.logger.Info("payment reconciled",
				zap.String("provider", name.String()),
				zap.String("payment_id", out.PaymentID),
				zap.String("order_id", out.OrderID),
				zap.String("from", out.From.String()),
				zap.String("to", out.To.String()),
			)
		}
		if err != nil {
			return nil, err
		}
		if swapped {
			return out, nil
		}

		r.logger.Debug("payment status changed concurrently, retrying",
			zap.String("payment_id", out.PaymentID),
			zap.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("%w: payment %s kept changing after %d attempts", ErrReconcileConflict, externalID, r.attempts)
}

// apply swaps the payment status and moves the order in one transaction.
// swapped is false when another writer changed the payment or the order first.
// A rejected or refunded payment whose order can no longer be canceled is
// committed and then reported as a conflict.
func (r *Reconciler) apply(ctx context.Context, pay *domain.Payment, target domain.Status) (swapped bool, err error) {
	var orderConflict error

	err = r.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := r.payments.CompareAndSwapStatus(ctx, pay.ID(), pay.Status(), target)
		if err != nil || !ok {
			return err
		}

		o, err := r.orders.FindByID(ctx, pay.OrderID())
		if err != nil {
			return fmt.Errorf("load order %s: %w", pay.OrderID(), err)
		}

		switch target {
		case domain.StatusApproved:
			if !pay.Amount().Equals(o.Total()) {
				return fmt.Errorf("%w: payment %s covers %s but order %s totals %s",
					ErrReconcileConflict, pay.ID(), pay.Amount(), o.ID(), o.Total())
			}
			if err := o.MarkPaid(); err != nil {
				return fmt.Errorf("%w: order %s is %s: %v", ErrReconcileConflict, o.ID(), o.Status(), err)
			}
		case domain.StatusRejected, domain.StatusRefunded:
			if !o.CanCancel() {
				orderConflict = fmt.Errorf("%w: payment %s is %s but order %s is %s",
					ErrReconcileConflict, pay.ID(), target, o.ID(), o.Status())
				swapped = true
				return nil
			}
			if err := o.Cancel(); err != nil {
				return err
			}
		}

		if err := r.orders.UpdateWithoutItems(ctx, o); err != nil {
			return err
		}
		swapped = true
		return nil
	})
	if errors.Is(err, order.ErrOrderChanged) {
		// Rolled back; the caller reloads and tries again.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return swapped, orderConflict
}

func resultOf(v interface{}, err error) string {
	switch {
	case err == nil:
		out := v.(*Outcome)
		switch {
		case out.Changed:
			return ResultApplied
		case out.Stale:
			return ResultStale
		default:
			return ResultNoop
		}
	case errors.Is(err, ErrPaymentNotFound):
		return ResultNotFound
	case errors.Is(err, ErrReconcileConflict), errors.Is(err, orderdomain.ErrInvalidTransition):
		return ResultConflict
	case errors.Is(err, provider.ErrUnknownProviderStatus):
		return ResultUnknownStatus
	default:
		return ResultError
	}
}
