package payment

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/storefront/server/internal/module/payment/provider"
	"github.com/storefront/server/internal/shared/response"
	apperrors "github.com/storefront/server/internal/utils/errors"
	"github.com/storefront/server/internal/utils/requestctx"
	"go.uber.org/zap"
)

// ProviderHeader selects the provider when a webhook is posted to /webhooks.
const ProviderHeader = "X-Payment-Provider"

// DefaultMaxWebhookBodyBytes bounds a notification body unless configured.
const DefaultMaxWebhookBodyBytes = 1 << 20

// Webhook results reported to the Observer.
const (
	WebhookAccepted         = "accepted"
	WebhookIgnored          = "ignored"
	WebhookUnknownProvider  = "unknown_provider"
	WebhookInvalidSignature = "invalid_signature"
	WebhookUnavailable      = "unavailable"
	WebhookFailed           = "failed"
	WebhookTooLarge         = "too_large"
)

// WebhookRouter dispatches provider notifications to reconciliation.
type WebhookRouter struct {
	registry   *ProviderRegistry
	reconciler *Reconciler
	observer   Observer
	logger     *zap.Logger
	maxBody    int64
}

// NewWebhookRouter creates a new webhook router.
func NewWebhookRouter(registry *ProviderRegistry, reconciler *Reconciler, observer Observer, logger *zap.Logger) *WebhookRouter {
	if observer == nil {
		observer = nopObserver{}
	}
	return &WebhookRouter{
		registry:   registry,
		reconciler: reconciler,
		observer:   observer,
		logger:     logger,
		maxBody:    DefaultMaxWebhookBodyBytes,
	}
}

// WithMaxBodyBytes sets the largest accepted notification body.
func (h *WebhookRouter) WithMaxBodyBytes(n int64) *WebhookRouter {
	if n > 0 {
		h.maxBody = n
	}
	return h
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookRouter) RegisterRoutes(r gin.IRoutes) {
	r.POST("/webhooks", h.Handle)
	r.POST("/webhooks/:provider", h.Handle)
}

// Handle authenticates a notification and reconciles the payment it reports.
// Once the notification is authentic the provider always gets its ack, so a
// payment we cannot match or apply is not redelivered forever.
func (h *WebhookRouter) Handle(c *gin.Context) {
	name := c.Param("provider")
	if name == "" {
		name = c.GetHeader(ProviderHeader)
	}

	gateway, err := h.registry.Get(name)
	if err != nil {
		h.observer.ObserveWebhook(name, WebhookUnknownProvider)
		response.Error(c, apperrors.NotFound("payment provider").WithError(err))
		return
	}
	providerName := gateway.Name().String()
	log := requestctx.Logger(c.Request.Context(), h.logger).With(zap.String("provider", providerName))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBody+1))
	if err != nil {
		log.Error("failed to read webhook body", zap.Error(err))
		h.observer.ObserveWebhook(providerName, WebhookFailed)
		response.Error(c, apperrors.BadRequest("failed to read body").WithError(err))
		return
	}
	if int64(len(body)) > h.maxBody {
		log.Warn("rejected oversized webhook", zap.Int64("limit", h.maxBody))
		h.observer.ObserveWebhook(providerName, WebhookTooLarge)
		response.Error(c, apperrors.PayloadTooLarge(""))
		return
	}

	notice, err := gateway.ParseNotify(c.Request.Context(), body, c.Request.Header)
	switch {
	case err == nil:
	case errors.Is(err, provider.ErrInvalidSignature):
		log.Warn("rejected webhook with invalid signature",
			zap.String("remote_addr", c.ClientIP()),
			zap.Error(err),
		)
		h.observer.ObserveWebhook(providerName, WebhookInvalidSignature)
		response.Error(c, apperrors.Unauthorized("invalid signature").WithError(err))
		return
	case errors.Is(err, provider.ErrIgnoredNotification):
		log.Debug("ignored webhook", zap.Error(err))
		h.observer.ObserveWebhook(providerName, WebhookIgnored)
		h.ack(c, gateway.Ack())
		return
	default:
		log.Error("failed to resolve webhook", zap.Error(err))
		h.observer.ObserveWebhook(providerName, WebhookUnavailable)
		response.Error(c, apperrors.ServiceUnavailable("").WithError(err))
		return
	}

	log = log.With(
		zap.String("external_id", notice.ExternalID),
		zap.String("provider_status", notice.Status),
	)

	out, err := h.reconciler.Reconcile(c.Request.Context(), providerName, notice.ExternalID, notice.Status)
	switch {
	case err == nil:
		log.Info("webhook processed",
			zap.Bool("changed", out.Changed),
			zap.Bool("stale", out.Stale),
		)
	case errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrReconcileConflict),
		errors.Is(err, provider.ErrUnknownProviderStatus):
		log.Error("webhook could not be applied", zap.Error(err))
	default:
		log.Error("failed to reconcile webhook", zap.Error(err))
		h.observer.ObserveWebhook(providerName, WebhookFailed)
		response.Error(c, apperrors.Internal("", err))
		return
	}

	h.observer.ObserveWebhook(providerName, WebhookAccepted)
	h.ack(c, gateway.Ack())
}

func (h *WebhookRouter) ack(c *gin.Context, ack provider.Ack) {
	c.Data(ack.StatusCode, ack.ContentType, ack.Body)
}
