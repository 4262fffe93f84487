package provider

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-pay/gopay"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPrepayClient struct {
	mock.Mock
}

func (m *MockPrepayClient) Prepay(ctx context.Context, bm gopay.BodyMap) (string, error) {
	args := m.Called(ctx, bm)
	return args.String(0), args.Error(1)
}

func (m *MockPrepayClient) TradeState(ctx context.Context, outTradeNo string) (string, error) {
	args := m.Called(ctx, outTradeNo)
	return args.String(0), args.Error(1)
}

type MockNotifyDecoder struct {
	mock.Mock
}

func (m *MockNotifyDecoder) Decode(req *http.Request) (*Notification, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func newTestWechat(t *testing.T) (*WechatProvider, *MockPrepayClient, *MockNotifyDecoder, *rsa.PrivateKey) {
	t.Helper()
	key, keyPEM := generateKeyPEM(t)
	signer, err := NewJsapiSigner("wxapp", keyPEM)
	require.NoError(t, err)

	client := new(MockPrepayClient)
	notices := new(MockNotifyDecoder)
	p := newWechatProvider(WechatConfig{
		AppID:     "wxapp",
		MchID:     "1900000001",
		NotifyURL: "https://shop.example/webhooks/wechat",
	}, client, notices, signer, NewGuard("wechat", GuardConfig{Timeout: time.Second}), RetryPolicy{Attempts: 2, Backoff: time.Millisecond})
	return p, client, notices, key
}

func TestWechatProvider_CreateWeChatJsapiPayment(t *testing.T) {
	p, client, _, key := newTestWechat(t)
	orderID := uuid.MustParse("8f14e45f-ceea-467a-9af5-0a1b2c3d4e5f")

	client.On("Prepay", mock.Anything, mock.MatchedBy(func(bm gopay.BodyMap) bool {
		return bm.GetString("out_trade_no") == "8f14e45fceea467a9af50a1b2c3d4e5f" &&
			bm.GetString("appid") == "wxapp" &&
			bm.GetString("notify_url") == "https://shop.example/webhooks/wechat"
	})).Return("wx27prepay", nil)

	got, err := p.CreateWeChatJsapiPayment(context.Background(), orderID, 2500, "openid-1")

	require.NoError(t, err)
	assert.Equal(t, "8f14e45fceea467a9af50a1b2c3d4e5f", got.ExternalID)
	assert.Len(t, got.ExternalID, 32)
	assert.Equal(t, "prepay_id=wx27prepay", got.Package)
	assert.Equal(t, "wxapp", got.Params.AppID)

	sig, err := base64.StdEncoding.DecodeString(got.Params.PaySign)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(jsapiMessage(got.Params)))
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))

	status, err := p.Statuses().Lookup(got.Status)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", status.String())
}

func TestWechatProvider_CreateRequiresOpenID(t *testing.T) {
	p, client, _, _ := newTestWechat(t)

	_, err := p.CreateWeChatJsapiPayment(context.Background(), uuid.New(), 100, " ")

	assert.ErrorIs(t, err, ErrGatewayRejected)
	client.AssertNotCalled(t, "Prepay", mock.Anything, mock.Anything)
}

func TestWechatProvider_CreateIsNotRetried(t *testing.T) {
	p, client, _, _ := newTestWechat(t)
	client.On("Prepay", mock.Anything, mock.Anything).Return("", ErrGatewayUnavailable)

	_, err := p.CreateWeChatJsapiPayment(context.Background(), uuid.New(), 100, "openid")

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	client.AssertNumberOfCalls(t, "Prepay", 1)
}

func TestWechatProvider_GetPaymentStatusByExternalID(t *testing.T) {
	p, client, _, _ := newTestWechat(t)
	client.On("TradeState", mock.Anything, "abc").Return("", ErrGatewayUnavailable).Once()
	client.On("TradeState", mock.Anything, "abc").Return("SUCCESS", nil).Once()

	state, err := p.GetPaymentStatusByExternalID(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", state)
}

func TestWechatProvider_ParseNotify(t *testing.T) {
	t.Run("forwards headers to the decoder", func(t *testing.T) {
		p, _, notices, _ := newTestWechat(t)
		notices.On("Decode", mock.MatchedBy(func(r *http.Request) bool {
			return r.Header.Get("Wechatpay-Signature") == "sig" && r.Header.Get("Wechatpay-Serial") == "serial"
		})).Return(&Notification{ExternalID: "abc", Status: "SUCCESS"}, nil)

		h := http.Header{}
		h.Set("Wechatpay-Signature", "sig")
		h.Set("Wechatpay-Serial", "serial")
		n, err := p.ParseNotify(context.Background(), []byte(`{"id":"EV-1"}`), h)

		require.NoError(t, err)
		assert.Equal(t, "abc", n.ExternalID)
	})

	t.Run("verification failure", func(t *testing.T) {
		p, _, notices, _ := newTestWechat(t)
		notices.On("Decode", mock.Anything).Return(nil, errors.Join(ErrInvalidSignature, errors.New("bad sig")))

		_, err := p.ParseNotify(context.Background(), []byte(`{}`), http.Header{})

		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestWechatProvider_ReissueInvokeParams(t *testing.T) {
	p, _, _, _ := newTestWechat(t)

	params, err := p.ReissueInvokeParams("prepay_id=wx27prepay")

	require.NoError(t, err)
	assert.Equal(t, "prepay_id=wx27prepay", params.Package)
	assert.NotEmpty(t, params.PaySign)
	assert.JSONEq(t, `{"code":"SUCCESS","message":"OK"}`, string(p.Ack().Body))
}

func TestNewWechatProvider_InvalidConfig(t *testing.T) {
	_, keyPEM := generateKeyPEM(t)

	_, err := NewWechatProvider(WechatConfig{
		AppID:      "wx",
		MchID:      "1900000001",
		SerialNo:   "SERIAL",
		APIKeyV3:   "0123456789abcdef0123456789abcdef",
		PrivateKey: keyPEM,
	}, nil, RetryPolicy{})

	assert.ErrorIs(t, err, ErrInvalidConfig, "missing platform key fails at startup")
}
