package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/shared/money"
)

const maxPIXResponseBytes = 1 << 20

// PIXConfig holds the PIX (Mercado Pago) gateway configuration.
type PIXConfig struct {
	BaseURL         string
	AccessToken     string
	WebhookSecret   string
	NotificationURL string
	PayerEmail      string
}

// PIXProvider creates and tracks PIX charges through the Mercado Pago
// payments API.
type PIXProvider struct {
	cfg    PIXConfig
	client *http.Client
	guard  *Guard
	retry  RetryPolicy
}

// NewPIXProvider creates a new PIX provider.
func NewPIXProvider(cfg PIXConfig, client *http.Client, guard *Guard, retry RetryPolicy) (*PIXProvider, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: pix access token is required", ErrInvalidConfig)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: pix webhook secret is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: pix base url: %v", ErrInvalidConfig, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = http.DefaultClient
	}
	if guard == nil {
		guard = NewGuard(domain.ProviderPIX.String(), DefaultGuardConfig())
	}

	return &PIXProvider{cfg: cfg, client: client, guard: guard, retry: retry}, nil
}

// Name returns the provider name.
func (p *PIXProvider) Name() domain.Provider { return domain.ProviderPIX }

// Statuses returns the PIX status table.
func (p *PIXProvider) Statuses() StatusTable { return pixStatuses }

type pixPayer struct {
	Email string `json:"email"`
}

type pixCreateRequest struct {
	TransactionAmount json.Number `json:"transaction_amount"`
	Description       string      `json:"description"`
	PaymentMethodID   string      `json:"payment_method_id"`
	ExternalReference string      `json:"external_reference"`
	NotificationURL   string      `json:"notification_url,omitempty"`
	Payer             pixPayer    `json:"payer"`
}

type pixPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	ExternalReference  string      `json:"external_reference"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePIXPayment creates a PIX charge. The order id is the idempotency key,
// so a repeated call for the same order returns the same charge.
func (p *PIXProvider) CreatePIXPayment(ctx context.Context, orderID uuid.UUID, amountInCents int64) (*PIXPayment, error) {
	amount, err := money.FromCents(amountInCents)
	if err != nil || amount.IsZero() {
		return nil, fmt.Errorf("%w: invalid amount %d", ErrGatewayRejected, amountInCents)
	}

	body, err := json.Marshal(pixCreateRequest{
		TransactionAmount: json.Number(amount.String()),
		Description:       "Order " + orderID.String(),
		PaymentMethodID:   "pix",
		ExternalReference: orderID.String(),
		NotificationURL:   p.cfg.NotificationURL,
		Payer:             pixPayer{Email: p.cfg.PayerEmail},
	})
	if err != nil {
		return nil, fmt.Errorf("encode pix request: %w", err)
	}

	var resp pixPaymentResponse
	err = p.guard.Do(ctx, "create", func(ctx context.Context) error {
		return p.do(ctx, http.MethodPost, "/v1/payments", body, map[string]string{
			"X-Idempotency-Key": orderID.String(),
		}, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: pix response without id", ErrGatewayUnavailable)
	}

	return &PIXPayment{
		ExternalID:   resp.ID.String(),
		QRCode:       resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: resp.PointOfInteraction.TransactionData.QRCodeBase64,
		Status:       resp.Status,
	}, nil
}

// GetPaymentStatusByExternalID queries the current status of a charge.
func (p *PIXProvider) GetPaymentStatusByExternalID(ctx context.Context, externalID string) (string, error) {
	var resp pixPaymentResponse
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		return p.guard.Do(ctx, "query", func(ctx context.Context) error {
			return p.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(externalID), nil, nil, &resp)
		})
	})
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

type pixNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseNotify verifies the x-signature header and resolves the notified
// payment's status. The notification body itself carries no status.
func (p *PIXProvider) ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notification, error) {
	var n pixNotification
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", ErrInvalidSignature, err)
	}

	dataID := n.Data.ID.String()
	if err := p.verifySignature(headers, dataID); err != nil {
		return nil, err
	}
	if n.Type != "payment" || dataID == "" {
		return nil, fmt.Errorf("%w: type %q", ErrIgnoredNotification, n.Type)
	}

	status, err := p.GetPaymentStatusByExternalID(ctx, dataID)
	if err != nil {
		return nil, fmt.Errorf("resolve pix status: %w", err)
	}
	return &Notification{ExternalID: dataID, Status: status}, nil
}

// Ack returns the response Mercado Pago expects.
func (p *PIXProvider) Ack() Ack {
	return Ack{StatusCode: http.StatusOK, ContentType: "text/plain; charset=utf-8", Body: []byte("OK")}
}

// verifySignature checks x-signature: "ts=<unix>,v1=<hex hmac-sha256>".
// The signed manifest is "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
// with absent parts left out.
func (p *PIXProvider) verifySignature(headers http.Header, dataID string) error {
	ts, v1 := parseSignatureHeader(headers.Get("X-Signature"))
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: missing x-signature", ErrInvalidSignature)
	}

	given, err := hex.DecodeString(v1)
	if err != nil {
		return fmt.Errorf("%w: malformed v1", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(p.cfg.WebhookSecret))
	mac.Write([]byte(pixManifest(dataID, headers.Get("X-Request-Id"), ts)))
	if !hmac.Equal(mac.Sum(nil), given) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

func pixManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

func parseSignatureHeader(v string) (ts, v1 string) {
	for _, part := range strings.Split(v, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}

func (p *PIXProvider) do(ctx context.Context, method, path string, body []byte, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build pix request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPIXResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: pix %s %s returned %d", ErrGatewayUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: pix %s %s returned %d: %s", ErrGatewayRejected, method, path, resp.StatusCode, truncate(payload, 256))
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode pix response: %v", ErrGatewayUnavailable, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
