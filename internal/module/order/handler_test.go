package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(f *serviceFixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f.service).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateOrder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newServiceFixture("ABCD1234")
		f.items.On("ItemSnapshots", mock.Anything, mock.Anything).Return(f.catalog(), nil)
		f.repo.On("ExistsByCode", mock.Anything, f.storeID, "ABCD1234").Return(false, nil)
		f.repo.On("CreateWithItems", mock.Anything, mock.Anything).Return(nil)

		w := doJSON(setupRouter(f), http.MethodPost, "/api/v1/orders", CreateOrderRequest{
			StoreID: f.storeID,
			Items:   []OrderLineRequest{{ItemID: f.p001.ID, Quantity: 2}},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PAYMENT_PENDING", resp.Status)
		assert.Equal(t, "50.00", resp.Total)
		assert.Equal(t, int64(5000), resp.TotalInCents)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "25.00", resp.Items[0].UnitPrice)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newServiceFixture()

		w := doJSON(setupRouter(f), http.MethodPost, "/api/v1/orders", map[string]any{"items": "nope"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unavailable item is 422", func(t *testing.T) {
		f := newServiceFixture()
		f.p001.Available = false
		f.items.On("ItemSnapshots", mock.Anything, mock.Anything).Return(f.catalog(), nil)

		w := doJSON(setupRouter(f), http.MethodPost, "/api/v1/orders", CreateOrderRequest{
			StoreID: f.storeID,
			Items:   []OrderLineRequest{{ItemID: f.p001.ID, Quantity: 1}},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandler_Transitions(t *testing.T) {
	t.Run("invalid transition is 409", func(t *testing.T) {
		f := newServiceFixture()
		o := f.pendingOrder(t)
		f.repo.On("FindByID", mock.Anything, o.ID()).Return(o, nil)

		w := doJSON(setupRouter(f), http.MethodPost, "/api/v1/orders/"+o.ID().String()+"/ready", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		f := newServiceFixture()
		o := f.pendingOrder(t)
		f.repo.On("FindByID", mock.Anything, o.ID()).Return(o, nil)
		f.repo.On("UpdateWithoutItems", mock.Anything, o).Return(nil)

		w := doJSON(setupRouter(f), http.MethodPost, "/api/v1/orders/"+o.ID().String()+"/cancel", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "CANCELED", resp.Status)
	})

	t.Run("no route marks an order paid", func(t *testing.T) {
		f := newServiceFixture()

		w := doJSON(setupRouter(f), http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/pay", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_ReplaceItems(t *testing.T) {
	t.Run("payment in flight is a conflict", func(t *testing.T) {
		f := newServiceFixture()
		o := f.pendingOrder(t)
		f.repo.On("FindByID", mock.Anything, o.ID()).Return(o, nil)
		f.payments.On("HasLivePayment", mock.Anything, o.ID()).Return(true, nil)

		w := doJSON(setupRouter(f), http.MethodPut, "/api/v1/orders/"+o.ID().String()+"/items", map[string]any{
			"items": []map[string]any{{"item_id": f.p002.ID.String(), "quantity": 1}},
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_GetOrder(t *testing.T) {
	t.Run("bad id", func(t *testing.T) {
		w := doJSON(setupRouter(newServiceFixture()), http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture()
		id := uuid.New()
		f.repo.On("FindByID", mock.Anything, id).Return(nil, ErrOrderNotFound)

		w := doJSON(setupRouter(f), http.MethodGet, "/api/v1/orders/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
