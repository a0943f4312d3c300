package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/admin"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog/catalogtest"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/checkout"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/events"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/repo"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/idempotency"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/metrics"
)

type testAPI struct {
	handler   http.Handler
	published *events.Recorder
	carts     *cart.Registry
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	reg := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(reg, "storefront")
	carts := cart.NewRegistry(cart.DefaultPricing(), cart.WithObserver(func(cmd cart.Command, _ cart.Cart) {
		cartMetrics.ObserveCommand(cmd.Kind())
	}))
	stub := catalogtest.New()
	rec := &events.Recorder{}

	srv := New(Deps{
		Catalog:  stub,
		Carts:    carts,
		Checkout: checkout.New(carts, repo.NewMemory(), rec, checkout.WithMetrics(cartMetrics)),
		Admin:    admin.New(stub, rec, nil),
		Metrics:  metrics.NewServerMetrics(reg, "storefront"),
		Gatherer: reg,
	})
	return testAPI{handler: srv.Handler(), published: rec, carts: carts}
}

func (a testAPI) do(t *testing.T, method, path, session string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type cartBody struct {
	Items  []cart.Item `json:"items"`
	Totals struct {
		Subtotal decimal.Decimal `json:"subtotal"`
		Tax      decimal.Decimal `json:"tax"`
		Shipping decimal.Decimal `json:"shipping"`
		Discount decimal.Decimal `json:"discount"`
		Total    decimal.Decimal `json:"total"`
	} `json:"totals"`
	CouponCode           string   `json:"coupon_code"`
	IsOpen               bool     `json:"is_open"`
	ItemCount            int      `json:"item_count"`
	CouponValid          bool     `json:"coupon_valid"`
	MissingPrescriptions []string `json:"missing_prescriptions"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var c cartBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Error
}

var shippingAddress = map[string]any{
	"shipping_address": map[string]string{"name": "Asha Rao", "line1": "1 MG Road", "city": "Pune", "postal_code": "411001"},
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSession_IssuedWhenAbsent(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/cart", "", nil)
	c := decodeCart(t, rec)
	assert.Empty(t, c.Items)

	issued := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, issued)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, issued, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: issued})
	again := httptest.NewRecorder()
	api.handler.ServeHTTP(again, req)
	assert.Equal(t, issued, again.Header().Get(SessionHeader))
	assert.Empty(t, again.Result().Cookies(), "no new cookie for a known session")
}

func TestCart_ExampleScenario(t *testing.T) {
	api := newTestAPI(t)

	c := decodeCart(t, api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-ibuprofen-200", "quantity": 2}))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.ItemCount)
	assert.Equal(t, "25.98", c.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "2.08", c.Totals.Tax.StringFixed(2))
	assert.Equal(t, "5.99", c.Totals.Shipping.StringFixed(2))
	assert.Equal(t, "34.05", c.Totals.Total.StringFixed(2))

	other := decodeCart(t, api.do(t, http.MethodGet, "/cart", "s2", nil))
	assert.Empty(t, other.Items, "sessions have separate carts")
}

func TestCart_AddItemErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		body any
		code int
		msg  string
	}{
		{"unknown product", map[string]any{"product_id": "prod-nope"}, http.StatusNotFound, "product not found"},
		{"out of stock", map[string]any{"product_id": "prod-metformin-500"}, http.StatusConflict, "out of stock"},
		{"zero quantity", map[string]any{"product_id": "prod-ibuprofen-200", "quantity": 0}, http.StatusBadRequest, "quantity must be positive"},
		{"missing product id", map[string]any{"quantity": 1}, http.StatusBadRequest, "product id is required"},
		{"invalid json", "{", http.StatusBadRequest, "invalid json"},
		{"empty body", nil, http.StatusBadRequest, "request body is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/cart/items", "s1", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, errorOf(t, rec), tt.msg)
		})
	}
}

func TestCart_UpdateAndRemove(t *testing.T) {
	api := newTestAPI(t)
	c := decodeCart(t, api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-vitamin-d3"}))
	itemID := c.Items[0].ID
	assert.Equal(t, 1, c.Items[0].Quantity, "quantity defaults to one")

	c = decodeCart(t, api.do(t, http.MethodPatch, "/cart/items/"+itemID, "s1", map[string]any{"quantity": 5}))
	assert.Equal(t, 5, c.Items[0].Quantity)

	rec := api.do(t, http.MethodPatch, "/cart/items/"+itemID, "s1", map[string]any{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, "/cart/items/missing", "s1", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c = decodeCart(t, api.do(t, http.MethodPatch, "/cart/items/"+itemID, "s1", map[string]any{"quantity": 0}))
	assert.Empty(t, c.Items, "zero quantity removes the line")

	c = decodeCart(t, api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-vitamin-d3"}))
	c = decodeCart(t, api.do(t, http.MethodDelete, "/cart/items/"+c.Items[0].ID, "s1", nil))
	assert.Empty(t, c.Items)
	assert.True(t, c.Totals.Total.IsZero())

	rec = api.do(t, http.MethodDelete, "/cart/items/"+itemID, "s1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_Coupons(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-bp-monitor", "quantity": 2})

	c := decodeCart(t, api.do(t, http.MethodPut, "/cart/coupon", "s1", map[string]any{"code": "welcome10"}))
	assert.True(t, c.CouponValid)
	assert.Equal(t, "11.00", c.Totals.Discount.StringFixed(2))
	assert.Equal(t, "0.00", c.Totals.Shipping.StringFixed(2))

	c = decodeCart(t, api.do(t, http.MethodPut, "/cart/coupon", "s1", map[string]any{"code": "BOGUS"}))
	assert.False(t, c.CouponValid)
	assert.Equal(t, "BOGUS", c.CouponCode)
	assert.True(t, c.Totals.Discount.IsZero())

	rec := api.do(t, http.MethodPut, "/cart/coupon", "s1", map[string]any{"code": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c = decodeCart(t, api.do(t, http.MethodDelete, "/cart/coupon", "s1", nil))
	assert.Empty(t, c.CouponCode)
}

func TestCart_VisibilityAndClear(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-saline-spray"})

	assert.True(t, decodeCart(t, api.do(t, http.MethodPost, "/cart/open", "s1", nil)).IsOpen)
	assert.False(t, decodeCart(t, api.do(t, http.MethodPost, "/cart/toggle", "s1", nil)).IsOpen)
	assert.True(t, decodeCart(t, api.do(t, http.MethodPost, "/cart/toggle", "s1", nil)).IsOpen)

	c := decodeCart(t, api.do(t, http.MethodPost, "/cart/close", "s1", nil))
	assert.False(t, c.IsOpen)
	assert.Len(t, c.Items, 1, "visibility leaves items alone")

	c = decodeCart(t, api.do(t, http.MethodDelete, "/cart", "s1", nil))
	assert.Empty(t, c.Items)
}

func TestCheckout_PrescriptionFlow(t *testing.T) {
	api := newTestAPI(t)
	c := decodeCart(t, api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-amoxicillin-500"}))
	itemID := c.Items[0].ID
	assert.Equal(t, []string{itemID}, c.MissingPrescriptions)

	rec := api.do(t, http.MethodPost, "/checkout", "s1", shippingAddress)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorOf(t, rec), "prescription required")

	rec = api.do(t, http.MethodPut, "/cart/items/"+itemID+"/prescription", "s1", map[string]any{"file": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c = decodeCart(t, api.do(t, http.MethodPut, "/cart/items/"+itemID+"/prescription", "s1", map[string]any{"file": "rx-2291.pdf"}))
	assert.Empty(t, c.MissingPrescriptions)

	rec = api.do(t, http.MethodPost, "/checkout", "s1", shippingAddress, idempotency.Header, "key-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, domain.OrderStatusPlaced, placed.Status)
	assert.Equal(t, "rx-2291.pdf", placed.Items[0].PrescriptionFile)

	replay := api.do(t, http.MethodPost, "/checkout", "s1", shippingAddress, idempotency.Header, "key-1")
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(ReplayHeader))
	var again domain.Order
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &again))
	assert.Equal(t, placed.ID, again.ID)
	assert.Len(t, api.published.Events(), 1)

	assert.Empty(t, decodeCart(t, api.do(t, http.MethodGet, "/cart", "s1", nil)).Items)

	rec = api.do(t, http.MethodGet, "/orders", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Orders []domain.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Orders, 1)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/orders/"+placed.ID, "s1", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/orders/"+placed.ID, "s2", nil).Code)
}

func TestCheckout_Errors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/checkout", "s1", shippingAddress)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "cart is empty", errorOf(t, rec))

	api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-ibuprofen-200"})
	rec = api.do(t, http.MethodPost, "/checkout", "s1", map[string]any{"shipping_address": map[string]string{"name": "A"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "invalid shipping address")
}

func TestCart_ReadingDoesNotCreateSession(t *testing.T) {
	api := newTestAPI(t)

	c := decodeCart(t, api.do(t, http.MethodGet, "/cart", "ghost", nil))
	assert.Empty(t, c.Items)
	rec := api.do(t, http.MethodPost, "/checkout", "ghost", shippingAddress)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, api.carts.Len())
}

func TestCheckout_KeyedRetryWithoutBody(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-ibuprofen-200"})
	rec := api.do(t, http.MethodPost, "/checkout", "s1", shippingAddress, idempotency.Header, "key-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	replay := api.do(t, http.MethodPost, "/checkout", "s1", nil, idempotency.Header, "key-1")
	require.Equal(t, http.StatusOK, replay.Code, replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get(ReplayHeader))

	rec = api.do(t, http.MethodPost, "/checkout", "s1", nil, idempotency.Header, "key-2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "invalid shipping address")

	rec = api.do(t, http.MethodPost, "/checkout", "s1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "request body is required")
}

func TestProducts(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/products?category=vitamins&sort=price_asc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page catalog.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "prod-vitamin-d3", page.Products[0].ID)

	rec = api.do(t, http.MethodGet, "/products?prescription=true&in_stock=true&max_price=15", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	for _, p := range page.Products {
		assert.True(t, p.PrescriptionRequired)
		assert.True(t, p.InStock())
		assert.True(t, p.Price.LessThanOrEqual(decimal.NewFromInt(15)))
	}

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/products?page=two", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/products?min_price=cheap", "", nil).Code)

	rec = api.do(t, http.MethodGet, "/products/prod-thermometer", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/products/prod-nope", "", nil).Code)
}

func TestAdmin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/admin/products", "", map[string]any{
		"id": "prod-zinc", "name": "Zinc 50mg", "category": "vitamins", "price": "7.25", "stock_quantity": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/admin/products", "", map[string]any{
		"id": "prod-zinc", "name": "Zinc 50mg", "category": "vitamins", "price": "7.25",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/admin/products", "", map[string]any{"name": "No price", "category": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/admin/products/prod-zinc", "", map[string]any{
		"name": "Zinc 50mg", "category": "vitamins", "price": "6.99", "stock_quantity": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/products/prod-zinc", "", nil)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "6.99", p.Price.StringFixed(2))

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/admin/products/prod-zinc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/admin/products/prod-zinc", "", nil).Code)
	assert.Len(t, api.published.Events(), 3)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{"product_id": "prod-ibuprofen-200"})
	api.do(t, http.MethodGet, "/cart", "s1", nil)

	rec := api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `pharmacy_storefront_http_requests_total{handler="cart_add",status="200"} 1`), body)
	assert.True(t, strings.Contains(body, `pharmacy_storefront_cart_commands_total{kind="add_item"} 1`), body)
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPut, "/cart", "s1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth_NotReady(t *testing.T) {
	srv := New(Deps{
		Carts: cart.NewRegistry(cart.DefaultPricing()),
		Ready: func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"db_error"}`, rec.Body.String())
}
