package provider

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/wechat/v3"
	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/payment/domain"
)

// WechatConfig holds WeChat Pay configuration.
type WechatConfig struct {
	AppID                 string // Application ID (official account / mini program)
	MchID                 string // Merchant ID
	APIKeyV3              string // APIv3 Key
	SerialNo              string // Merchant certificate serial number
	PrivateKey            string // Merchant private key (PEM)
	WechatPublicKeySerial string // Platform certificate serial
	WechatPublicKey       string // Platform public key (PEM)
	IsProd                bool
	NotifyURL             string
}

// prepayClient is the slice of the WeChat Pay v3 API the provider uses.
type prepayClient interface {
	Prepay(ctx context.Context, bm gopay.BodyMap) (prepayID string, err error)
	TradeState(ctx context.Context, outTradeNo string) (string, error)
}

// notifyDecoder authenticates and decrypts a payment notification.
type notifyDecoder interface {
	Decode(req *http.Request) (*Notification, error)
}

// WechatProvider implements JSAPI payments for WeChat Pay.
type WechatProvider struct {
	cfg     WechatConfig
	client  prepayClient
	notices notifyDecoder
	signer  *JsapiSigner
	guard   *Guard
	retry   RetryPolicy
}

// NewWechatProvider creates a new WeChat Pay provider. Every key is parsed
// here so that a bad deployment fails at startup.
func NewWechatProvider(cfg WechatConfig, guard *Guard, retry RetryPolicy) (*WechatProvider, error) {
	if cfg.MchID == "" || cfg.SerialNo == "" || cfg.APIKeyV3 == "" {
		return nil, fmt.Errorf("%w: wechat mch_id, serial_no and api_key_v3 are required", ErrInvalidConfig)
	}

	signer, err := NewJsapiSigner(cfg.AppID, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	platformKey, err := parseRSAPublicKey(cfg.WechatPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: wechat platform public key: %v", ErrInvalidConfig, err)
	}

	client, err := wechat.NewClientV3(
		cfg.MchID,
		cfg.SerialNo,
		cfg.APIKeyV3,
		cfg.PrivateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("create wechat client: %w", err)
	}

	if cfg.IsProd {
		client.SetPlatformCert([]byte(cfg.WechatPublicKey), cfg.WechatPublicKeySerial)
	}

	return newWechatProvider(
		cfg,
		&gopayClient{client: client},
		&gopayNotifyDecoder{platformKey: platformKey, apiKeyV3: cfg.APIKeyV3},
		signer,
		guard,
		retry,
	), nil
}

func newWechatProvider(cfg WechatConfig, client prepayClient, notices notifyDecoder, signer *JsapiSigner, guard *Guard, retry RetryPolicy) *WechatProvider {
	if guard == nil {
		guard = NewGuard(domain.ProviderWechat.String(), DefaultGuardConfig())
	}
	return &WechatProvider{
		cfg:     cfg,
		client:  client,
		notices: notices,
		signer:  signer,
		guard:   guard,
		retry:   retry,
	}
}

// Name returns the provider name.
func (p *WechatProvider) Name() domain.Provider { return domain.ProviderWechat }

// Statuses returns the WeChat trade state table.
func (p *WechatProvider) Statuses() StatusTable { return wechatStatuses }

// OutTradeNo derives the 32 character merchant order number from an order id.
func OutTradeNo(orderID uuid.UUID) string {
	return strings.ReplaceAll(orderID.String(), "-", "")
}

// CreateWeChatJsapiPayment places a JSAPI prepay order and signs the client
// invoke params for it.
func (p *WechatProvider) CreateWeChatJsapiPayment(ctx context.Context, orderID uuid.UUID, amountInCents int64, openID string) (*JsapiPayment, error) {
	if strings.TrimSpace(openID) == "" {
		return nil, fmt.Errorf("%w: openid is required for JSAPI payment", ErrGatewayRejected)
	}
	if amountInCents <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", ErrGatewayRejected, amountInCents)
	}

	outTradeNo := OutTradeNo(orderID)

	bm := make(gopay.BodyMap)
	bm.Set("appid", p.cfg.AppID)
	bm.Set("mchid", p.cfg.MchID)
	bm.Set("description", "Order "+outTradeNo)
	bm.Set("out_trade_no", outTradeNo)
	bm.Set("notify_url", p.cfg.NotifyURL)
	bm.SetBodyMap("amount", func(am gopay.BodyMap) {
		am.Set("total", amountInCents)
		am.Set("currency", "CNY")
	})
	bm.SetBodyMap("payer", func(pm gopay.BodyMap) {
		pm.Set("openid", openID)
	})

	var prepayID string
	err := p.guard.Do(ctx, "create", func(ctx context.Context) error {
		var err error
		prepayID, err = p.client.Prepay(ctx, bm)
		return err
	})
	if err != nil {
		return nil, err
	}

	params, err := p.signer.Sign(prepayID)
	if err != nil {
		return nil, err
	}

	return &JsapiPayment{
		ExternalID: outTradeNo,
		Package:    params.Package,
		Status:     "NOTPAY",
		Params:     params,
	}, nil
}

// ReissueInvokeParams signs fresh invoke params for a stored prepay package.
func (p *WechatProvider) ReissueInvokeParams(pkg string) (*InvokeParams, error) {
	return p.signer.SignPackage(pkg)
}

// GetPaymentStatusByExternalID returns the trade_state of an out_trade_no.
func (p *WechatProvider) GetPaymentStatusByExternalID(ctx context.Context, externalID string) (string, error) {
	var state string
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		return p.guard.Do(ctx, "query", func(ctx context.Context) error {
			var err error
			state, err = p.client.TradeState(ctx, externalID)
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// ParseNotify authenticates and decrypts a payment notification.
func (p *WechatProvider) ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = headers.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Content-Type", "application/json")

	n, err := p.notices.Decode(req)
	if err != nil {
		return nil, err
	}
	if n.ExternalID == "" {
		return nil, fmt.Errorf("%w: notification without out_trade_no", ErrIgnoredNotification)
	}
	return n, nil
}

// Ack returns the response WeChat Pay expects.
func (p *WechatProvider) Ack() Ack {
	body, _ := json.Marshal(map[string]string{
		"code":    "SUCCESS",
		"message": "OK",
	})
	return Ack{StatusCode: http.StatusOK, ContentType: "application/json", Body: body}
}

// --- gopay adapters ---

type gopayClient struct {
	client *wechat.ClientV3
}

func (c *gopayClient) Prepay(ctx context.Context, bm gopay.BodyMap) (string, error) {
	resp, err := c.client.V3TransactionJsapi(ctx, bm)
	if err != nil {
		return "", fmt.Errorf("%w: create jsapi payment: %v", ErrGatewayUnavailable, err)
	}
	if resp.Code != wechat.Success {
		return "", wechatError("jsapi prepay", resp.Code, resp.Error)
	}
	return resp.Response.PrepayId, nil
}

func (c *gopayClient) TradeState(ctx context.Context, outTradeNo string) (string, error) {
	resp, err := c.client.V3TransactionQueryOrder(ctx, wechat.OutTradeNo, outTradeNo)
	if err != nil {
		return "", fmt.Errorf("%w: query payment: %v", ErrGatewayUnavailable, err)
	}
	if resp.Code != wechat.Success {
		return "", wechatError("query order", resp.Code, resp.Error)
	}
	return resp.Response.TradeState, nil
}

func wechatError(op string, code int, msg string) error {
	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: wechat %s: %d - %s", ErrGatewayUnavailable, op, code, msg)
	}
	return fmt.Errorf("%w: wechat %s: %d - %s", ErrGatewayRejected, op, code, msg)
}

type gopayNotifyDecoder struct {
	platformKey *rsa.PublicKey
	apiKeyV3    string
}

func (d *gopayNotifyDecoder) Decode(req *http.Request) (*Notification, error) {
	notifyReq, err := wechat.V3ParseNotify(req)
	if err != nil {
		return nil, fmt.Errorf("%w: parse notify: %v", ErrInvalidSignature, err)
	}
	if err := notifyReq.VerifySignByPK(d.platformKey); err != nil {
		return nil, fmt.Errorf("%w: verify signature: %v", ErrInvalidSignature, err)
	}
	resource, err := notifyReq.DecryptPayCipherText(d.apiKeyV3)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt resource: %v", ErrInvalidSignature, err)
	}
	return &Notification{ExternalID: resource.OutTradeNo, Status: resource.TradeState}, nil
}
