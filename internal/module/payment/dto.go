package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/module/payment/provider"
)

// CreatePIXPaymentRequest represents a request to pay an order with PIX.
type CreatePIXPaymentRequest struct {
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	AmountInCents int64     `json:"amount_in_cents" binding:"required,gt=0"`
}

// CreateWeChatJsapiPaymentRequest represents a request to pay an order from
// inside WeChat.
type CreateWeChatJsapiPaymentRequest struct {
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	AmountInCents int64     `json:"amount_in_cents" binding:"required,gt=0"`
	OpenID        string    `json:"openid" binding:"required"`
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID            uuid.UUID              `json:"id"`
	OrderID       uuid.UUID              `json:"order_id"`
	Provider      string                 `json:"provider"`
	Status        string                 `json:"status"`
	Amount        string                 `json:"amount"`
	AmountInCents int64                  `json:"amount_in_cents"`
	ExternalID    string                 `json:"external_id"`
	QRCode        string                 `json:"qr_code,omitempty"`
	QRCodeBase64  string                 `json:"qr_code_base64,omitempty"`
	InvokeParams  *provider.InvokeParams `json:"invoke_params,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// PaymentToResponse converts a domain payment to its API representation.
// The WeChat prepay package is never exposed on its own; clients get it
// inside signed invoke params.
func PaymentToResponse(p *domain.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:            p.ID(),
		OrderID:       p.OrderID(),
		Provider:      p.Provider().String(),
		Status:        p.Status().String(),
		Amount:        p.Amount().String(),
		AmountInCents: p.AmountInCents(),
		ExternalID:    p.ExternalID(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
	if p.Provider() == domain.ProviderPIX {
		resp.QRCode = p.QRCode()
	}
	return resp
}

func resultToResponse(r *PaymentResult) *PaymentResponse {
	resp := PaymentToResponse(r.Payment)
	resp.QRCodeBase64 = r.QRCodeBase64
	resp.InvokeParams = r.InvokeParams
	return resp
}
