package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	fulfillmentapp "github.com/dshop/backend/internal/application/fulfillment"
	"github.com/dshop/backend/internal/domain/fulfillment"
	"github.com/dshop/backend/internal/domain/order"
	"github.com/dshop/backend/internal/domain/shop"
	printful "github.com/dshop/backend/internal/infrastructure/fulfillment"
	"github.com/dshop/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockSecretStore struct {
	mock.Mock
}

func (m *MockSecretStore) Get(ctx context.Context, shopID int64, key string) (string, error) {
	args := m.Called(ctx, shopID, key)
	return args.String(0), args.Error(1)
}

// printfulCall records one request received by the fake Printful server
type printfulCall struct {
	method        string
	path          string
	authorization string
	body          string
}

type fakePrintful struct {
	server *httptest.Server
	calls  []printfulCall
}

func newFakePrintful(t *testing.T, status int, body string) *fakePrintful {
	t.Helper()
	fp := &fakePrintful{}
	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		fp.calls = append(fp.calls, printfulCall{
			method:        r.Method,
			path:          r.URL.RequestURI(),
			authorization: r.Header.Get("Authorization"),
			body:          string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func newPrintfulHandler(t *testing.T, secrets fulfillment.SecretStore, baseURL string) *PrintfulHandler {
	t.Helper()
	cfg := printful.NewPrintfulConfig()
	cfg.APIBaseURL = baseURL
	client, err := printful.NewPrintfulClient(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	return NewPrintfulHandler(fulfillmentapp.NewService(secrets, client, zap.NewNop()))
}

// withShop and withOrder stand in for the auth and order middleware
func withShop(s *shop.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ShopKey, s)
		c.Next()
	}
}

func withOrder(o *order.Order) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.OrderKey, o)
		c.Next()
	}
}

func testShop() *shop.Shop {
	s := &shop.Shop{Name: "Test Shop", AuthToken: "shop-token"}
	s.ID = 3
	return s
}

func testOrder() *order.Order {
	o := &order.Order{ShopID: 3, OrderID: "1-001-42"}
	o.ID = 11
	return o
}

func newPrintfulEngine(h *PrintfulHandler) *gin.Engine {
	engine := gin.New()
	engine.GET("/orders/:orderId/printful", withShop(testShop()), withOrder(testOrder()), h.GetOrder)
	engine.POST("/orders/:orderId/printful/create", withShop(testShop()), h.CreateOrder)
	engine.POST("/orders/:orderId/printful/confirm", withShop(testShop()), withOrder(testOrder()), h.ConfirmOrder)
	engine.POST("/shipping", withShop(testShop()), h.Shipping)
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func withKey(key string) *MockSecretStore {
	secrets := new(MockSecretStore)
	secrets.On("Get", mock.Anything, int64(3), fulfillment.SecretKeyPrintful).Return(key, nil)
	return secrets
}

const validOrderBody = `{"recipient":{"name":"Ada"},"items":[{"variant_id":1,"quantity":1}],"external_id":"1-001-42"}`

func TestPrintfulHandler_GetOrder(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{"code":200,"result":{"id":99,"status":"draft"}}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodGet, "/orders/1-001-42/printful", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":99,"status":"draft"}`, w.Body.String())
	require.Len(t, fp.calls, 1)
	assert.Equal(t, http.MethodGet, fp.calls[0].method)
	assert.Equal(t, "/orders/@1-001-42", fp.calls[0].path)
	assert.Equal(t, "Basic cGYta2V5", fp.calls[0].authorization)
}

func TestPrintfulHandler_GetOrder_NoResult(t *testing.T) {
	fp := newFakePrintful(t, http.StatusNotFound, `{"code":404,"error":{"message":"Not found"}}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodGet, "/orders/1-001-42/printful", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestPrintfulHandler_GetOrder_MissingKey(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{}`)
	h := newPrintfulHandler(t, withKey(""), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodGet, "/orders/1-001-42/printful", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Missing printful API configuration"}`, w.Body.String())
	assert.Empty(t, fp.calls)
}

func TestPrintfulHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPath string
	}{
		{"confirms by default", validOrderBody, "/orders?confirm=true"},
		{"draft stays unconfirmed", `{"draft":true,"recipient":{},"items":[{}]}`, "/orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakePrintful(t, http.StatusOK, `{"code":200,"result":{"id":1}}`)
			h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

			w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/create", tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"success":true}`, w.Body.String())
			require.Len(t, fp.calls, 1)
			assert.Equal(t, tt.wantPath, fp.calls[0].path)
			assert.JSONEq(t, tt.body, fp.calls[0].body)
		})
	}
}

func TestPrintfulHandler_CreateOrder_Rejected(t *testing.T) {
	fp := newFakePrintful(t, http.StatusBadRequest, `{"code":400,"error":{"message":"Invalid address"}}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/create", validOrderBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid address"}`, w.Body.String())
}

func TestPrintfulHandler_CreateOrder_MalformedProviderResponse(t *testing.T) {
	fp := newFakePrintful(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/create", validOrderBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestPrintfulHandler_CreateOrder_RejectionWithoutError(t *testing.T) {
	fp := newFakePrintful(t, http.StatusBadRequest, `{"code":400,"result":"Bad Request"}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/create", validOrderBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestPrintfulHandler_CreateOrder_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `recipient=ada`},
		{"missing items", `{"recipient":{"name":"Ada"}}`},
		{"empty items", `{"recipient":{"name":"Ada"},"items":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakePrintful(t, http.StatusOK, `{}`)
			h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

			w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/create", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["message"])
			assert.Empty(t, fp.calls)
		})
	}
}

func TestPrintfulHandler_MissingKeyOutranksBadBody(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		message string
	}{
		{"create with non json body", "/orders/1-001-42/printful/create", `recipient=ada`, "Missing printful API configuration"},
		{"create without items", "/orders/1-001-42/printful/create", `{"recipient":{"name":"Ada"}}`, "Missing printful API configuration"},
		{"shipping without recipient", "/shipping", `{"items":[]}`, "Service Unavailable"},
		{"shipping with non json body", "/shipping", `country=US`, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakePrintful(t, http.StatusOK, `{}`)
			h := newPrintfulHandler(t, withKey(""), fp.server.URL)

			w := doRequest(newPrintfulEngine(h), http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"success":false,"message":"`+tt.message+`"}`, w.Body.String())
			assert.Empty(t, fp.calls)
		})
	}
}

func TestPrintfulHandler_CreateOrder_ProviderUnavailable(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{}`)
	url := fp.server.URL
	fp.server.Close()
	h := newPrintfulHandler(t, withKey("pf-key"), url)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/create", validOrderBody)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Printful is unavailable"}`, w.Body.String())
}

func TestPrintfulHandler_ConfirmOrder(t *testing.T) {
	fp := newFakePrintful(t, http.StatusConflict, `{"code":409,"error":{"message":"Already confirmed"}}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/confirm", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, fp.calls, 1)
	assert.Equal(t, "/orders/@1-001-42/confirm", fp.calls[0].path)
}

func TestPrintfulHandler_ConfirmOrder_SecretStoreFailure(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{}`)
	secrets := new(MockSecretStore)
	secrets.On("Get", mock.Anything, int64(3), fulfillment.SecretKeyPrintful).Return("", errors.New("decrypt failed"))
	h := newPrintfulHandler(t, secrets, fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/orders/1-001-42/printful/confirm", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, fp.calls)
}

const shippingBody = `{
	"recipient": {"address1": "1 Main St", "city": "Springfield", "countryCode": "US", "provinceCode": "IL", "zip": "62701"},
	"items": [{"quantity": 2, "variant": 4011}, {"quantity": 1, "variant": null}]
}`

func TestPrintfulHandler_Shipping(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{"code":200,"result":[
		{"id":"STANDARD","name":"Flat Rate (3-4 business days after fulfillment)","rate":"3.99","currency":"USD","minDeliveryDays":3,"maxDeliveryDays":4}
	]}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/shipping", shippingBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"STANDARD","label":"Flat Rate","detail":"4-6 business days","amount":399,"countries":["US"]}]`, w.Body.String())

	require.Len(t, fp.calls, 1)
	assert.Equal(t, "/shipping/rates", fp.calls[0].path)
	assert.JSONEq(t, `{
		"recipient": {"address1": "1 Main St", "city": "Springfield", "country_code": "US", "state_code": "IL", "zip": "62701"},
		"items": [{"quantity": 2, "variant_id": 4011}]
	}`, fp.calls[0].body)
}

func TestPrintfulHandler_Shipping_NoShippableItems(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	body := `{"recipient":{"countryCode":"US"},"items":[{"quantity":1}]}`
	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/shipping", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
	assert.Empty(t, fp.calls)
}

func TestPrintfulHandler_Shipping_NoRates(t *testing.T) {
	fp := newFakePrintful(t, http.StatusBadRequest, `{"code":400,"result":"Recipient country is not supported"}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/shipping", shippingBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestPrintfulHandler_Shipping_MissingKey(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{}`)
	h := newPrintfulHandler(t, withKey(""), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/shipping", shippingBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Service Unavailable"}`, w.Body.String())
	assert.Empty(t, fp.calls)
}

func TestPrintfulHandler_Shipping_InvalidBody(t *testing.T) {
	fp := newFakePrintful(t, http.StatusOK, `{}`)
	h := newPrintfulHandler(t, withKey("pf-key"), fp.server.URL)

	w := doRequest(newPrintfulEngine(h), http.MethodPost, "/shipping", `{"items":[]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid request body"}`, w.Body.String())
	assert.Empty(t, fp.calls)
}

func TestPrintfulHandler_RequiresShop(t *testing.T) {
	h := newPrintfulHandler(t, new(MockSecretStore), "http://127.0.0.1:1")
	engine := gin.New()
	engine.POST("/shipping", h.Shipping)

	w := doRequest(engine, http.MethodPost, "/shipping", shippingBody)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
