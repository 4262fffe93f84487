package app

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/storefront/server/internal/module/catalog"
	"github.com/storefront/server/internal/module/order"
	"github.com/storefront/server/internal/module/payment"
	"github.com/storefront/server/internal/shared/config"
	"github.com/storefront/server/internal/shared/database/databasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec-app"

// fakePIX serves the two Mercado Pago endpoints the PIX provider calls.
type fakePIX struct {
	status atomic.Value
}

func newFakePIX(t *testing.T) (*fakePIX, *httptest.Server) {
	t.Helper()
	f := &fakePIX{}
	f.status.Store("pending")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payments":
			_, _ = w.Write([]byte(`{"id":9001,"status":"pending","point_of_interaction":{"transaction_data":{"qr_code":"000201PIX","qr_code_base64":"iVBOR"}}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payments/9001":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 9001, "status": f.status.Load()})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func testConfig(pixURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "storefront"
	cfg.Payment.ReconcileAttempts = 3
	cfg.Payment.StatusRetryAttempts = 1
	if pixURL != "" {
		cfg.Payment.PIX = config.PIXConfig{
			Enabled:       true,
			BaseURL:       pixURL,
			AccessToken:   "TEST-token",
			WebhookSecret: testWebhookSecret,
		}
	}
	return cfg
}

func setupApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	db := databasetest.Open(t, Models()...)
	reg := prometheus.NewRegistry()
	a, err := newApp(cfg, zap.NewNop(), db, nil, reg, reg)
	require.NoError(t, err)
	return a
}

func doJSON(t *testing.T, a *App, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func signPIX(dataID, ts string) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte("id:" + dataID + ";ts:" + ts + ";"))
	return "ts=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

// seedCatalog creates a store with one item priced at 25.00 through the API.
func seedCatalog(t *testing.T, a *App) (storeID, itemID uuid.UUID) {
	t.Helper()

	w := doJSON(t, a, http.MethodPost, "/api/v1/stores", catalog.CreateStoreRequest{Name: "Downtown", Code: "ST001"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	store := decode[catalog.StoreResponse](t, w)

	w = doJSON(t, a, http.MethodPost, "/api/v1/stores/"+store.ID.String()+"/categories", catalog.CreateCategoryRequest{Name: "Bakery"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decode[catalog.CategoryResponse](t, w)

	w = doJSON(t, a, http.MethodPost, "/api/v1/items", catalog.CreateItemRequest{
		StoreID:    store.ID,
		CategoryID: category.ID,
		Code:       "P001",
		Name:       "Sourdough",
		Price:      "25.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[catalog.ItemResponse](t, w)

	return store.ID, item.ID
}

func TestApp_Health(t *testing.T) {
	a := setupApp(t, testConfig(""))

	w := doJSON(t, a, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body["checks"], "redis")
}

func TestApp_Metrics(t *testing.T) {
	t.Run("exposed when enabled", func(t *testing.T) {
		a := setupApp(t, testConfig(""))
		doJSON(t, a, http.MethodGet, "/health", nil)

		w := doJSON(t, a, http.MethodGet, "/metrics", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
	})

	t.Run("absent when disabled", func(t *testing.T) {
		cfg := testConfig("")
		cfg.Metrics.Enabled = false
		a := setupApp(t, cfg)

		w := doJSON(t, a, http.MethodGet, "/metrics", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestApp_ProviderRegistry(t *testing.T) {
	t.Run("no provider enabled", func(t *testing.T) {
		a := setupApp(t, testConfig(""))

		assert.Empty(t, a.providers.List())

		w := doJSON(t, a, http.MethodPost, "/api/v1/payments/pix", payment.CreatePIXPaymentRequest{
			OrderID:       uuid.New(),
			AmountInCents: 2500,
		})
		assert.NotEqual(t, http.StatusCreated, w.Code)
	})

	t.Run("pix enabled", func(t *testing.T) {
		_, srv := newFakePIX(t)
		a := setupApp(t, testConfig(srv.URL))

		assert.Equal(t, []string{"pix"}, a.providers.List())
	})

	t.Run("pix without secret fails startup", func(t *testing.T) {
		cfg := testConfig("https://api.mercadopago.com")
		cfg.Payment.PIX.WebhookSecret = ""
		db := databasetest.Open(t, Models()...)
		reg := prometheus.NewRegistry()

		_, err := newApp(cfg, zap.NewNop(), db, nil, reg, reg)

		assert.Error(t, err)
	})
}

func TestApp_CheckoutFlow(t *testing.T) {
	pix, srv := newFakePIX(t)
	a := setupApp(t, testConfig(srv.URL))
	storeID, itemID := seedCatalog(t, a)

	// Checkout copies the catalog price onto the order.
	w := doJSON(t, a, http.MethodPost, "/api/v1/orders", order.CreateOrderRequest{
		StoreID: storeID,
		Items:   []order.OrderLineRequest{{ItemID: itemID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[order.OrderResponse](t, w)
	assert.Equal(t, "PAYMENT_PENDING", created.Status)
	assert.Equal(t, int64(5000), created.TotalInCents)

	w = doJSON(t, a, http.MethodPost, "/api/v1/payments/pix", payment.CreatePIXPaymentRequest{
		OrderID:       created.ID,
		AmountInCents: 5000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pay := decode[payment.PaymentResponse](t, w)
	assert.Equal(t, "9001", pay.ExternalID)
	assert.Equal(t, "PENDING", pay.Status)

	// The charge was issued for 50.00, so the lines are locked.
	w = doJSON(t, a, http.MethodPut, "/api/v1/orders/"+created.ID.String()+"/items", order.ReplaceItemsRequest{
		Items: []order.OrderLineRequest{{ItemID: itemID, Quantity: 50}},
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// The provider approves and notifies.
	pix.status.Store("approved")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/pix",
		strings.NewReader(`{"type":"payment","action":"payment.updated","data":{"id":"9001"}}`))
	req.Header.Set("X-Signature", signPIX("9001", "1700000000"))
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w = doJSON(t, a, http.MethodGet, "/api/v1/orders/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAID", decode[order.OrderResponse](t, w).Status)

	w = doJSON(t, a, http.MethodGet, "/api/v1/payments/"+pay.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "APPROVED", decode[payment.PaymentResponse](t, w).Status)

	// Redelivery of the same notification changes nothing.
	req = httptest.NewRequest(http.MethodPost, "/webhooks",
		strings.NewReader(`{"type":"payment","action":"payment.updated","data":{"id":"9001"}}`))
	req.Header.Set(payment.ProviderHeader, "pix")
	req.Header.Set("X-Signature", signPIX("9001", "1700000001"))
	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_Webhooks(t *testing.T) {
	_, srv := newFakePIX(t)
	a := setupApp(t, testConfig(srv.URL))

	t.Run("unknown provider", func(t *testing.T) {
		w := doJSON(t, a, http.MethodPost, "/webhooks/stripe", map[string]any{})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/pix",
			strings.NewReader(`{"type":"payment","data":{"id":"9001"}}`))
		req.Header.Set("X-Signature", "ts=1,v1=00")
		w := httptest.NewRecorder()
		a.Router().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestApp_Stop(t *testing.T) {
	a := setupApp(t, testConfig(""))

	assert.NoError(t, a.Stop())
}
