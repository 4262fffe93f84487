package provider

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
)

// PIXPayment is a PIX charge accepted by the provider.
type PIXPayment struct {
	ExternalID   string
	QRCode       string // copy and paste code
	QRCodeBase64 string // PNG image
	Status       string
}

// InvokeParams are handed to the WeChat client SDK (wx.requestPayment).
type InvokeParams struct {
	AppID     string `json:"appId"`
	TimeStamp string `json:"timeStamp"`
	NonceStr  string `json:"nonceStr"`
	Package   string `json:"package"`
	SignType  string `json:"signType"`
	PaySign   string `json:"paySign"`
}

// JsapiPayment is a WeChat JSAPI prepay order.
type JsapiPayment struct {
	ExternalID string // out_trade_no
	Package    string // "prepay_id=..."
	Status     string
	Params     *InvokeParams
}

// Notification is an authenticated payment status notice.
type Notification struct {
	ExternalID string
	Status     string
}

// Ack is the response a provider expects for an accepted notification.
type Ack struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// PIXGateway creates PIX charges.
type PIXGateway interface {
	CreatePIXPayment(ctx context.Context, orderID uuid.UUID, amountInCents int64) (*PIXPayment, error)
}

// WeChatJsapiGateway creates WeChat JSAPI prepay orders.
type WeChatJsapiGateway interface {
	CreateWeChatJsapiPayment(ctx context.Context, orderID uuid.UUID, amountInCents int64, openID string) (*JsapiPayment, error)
	// ReissueInvokeParams signs fresh client params for an existing prepay package.
	ReissueInvokeParams(pkg string) (*InvokeParams, error)
}

// StatusQuerier asks the provider for the current status of a payment.
type StatusQuerier interface {
	GetPaymentStatusByExternalID(ctx context.Context, externalID string) (string, error)
}

// NotifyParser authenticates and decodes a raw provider notification.
// Failed authentication must return an error wrapping ErrInvalidSignature.
type NotifyParser interface {
	ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notification, error)
	Ack() Ack
}

// Gateway is everything reconciliation needs from one provider.
type Gateway interface {
	StatusQuerier
	NotifyParser
	Name() domain.Provider
	Statuses() StatusTable
}
