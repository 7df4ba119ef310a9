package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/cart"
	"github.com/omii/storefront/internal/domain/order"
	"github.com/omii/storefront/internal/domain/product"
	"github.com/omii/storefront/internal/domain/promo"
	"github.com/omii/storefront/internal/storage/memory"
)

var testPepper = []byte("test-pepper")

const (
	customerKey = "customer-key"
	b2bKey      = "b2b-key"
	adminKey    = "admin-key"
	deliveryKey = "delivery-key"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	products := memory.NewProductRepository([]product.Product{
		{ID: "1", Name: "Premium Shisham Dinner Set", Price: d("3500"), BulkPrice: d("2800"), MinBulkQuantity: 10, Stock: 25, Category: "Dinner Sets"},
		{ID: "2", Name: "Round Serving Tray - Neem Wood", Price: d("1200"), BulkPrice: d("950"), MinBulkQuantity: 20, Stock: 40, Category: "Serving Trays"},
		{ID: "3", Name: "Chapati Storage Box - Saal Wood", Price: d("850"), Stock: 60, Category: "Storage Boxes"},
	})
	promos := memory.NewPromoRepository([]promo.Rule{
		{Code: "WELCOME10", Kind: promo.KindPercentage, Value: d("10"), MinSubtotal: d("1000"), ValidUntil: time.Now().Add(time.Hour), Active: true},
		{Code: "FLAT500", Kind: promo.KindFixed, Value: d("500"), MinSubtotal: d("2000"), ValidUntil: time.Now().Add(time.Hour), Active: true},
		{Code: "B2B15", Kind: promo.KindPercentage, Value: d("15"), MinSubtotal: d("5000"), MaxDiscount: d("2000"), ValidUntil: time.Now().Add(time.Hour), Active: true},
	})
	apikeys := memory.NewAPIKeyRepository([]auth.Identity{
		{ID: "k1", KeyHash: auth.HashKey(testPepper, customerKey), Name: "John Doe", CustomerID: "cust-1", Role: auth.RoleCustomer},
		{ID: "k2", KeyHash: auth.HashKey(testPepper, b2bKey), Name: "Jane Smith", CustomerID: "cust-2", Role: auth.RoleCustomer, B2B: true},
		{ID: "k3", KeyHash: auth.HashKey(testPepper, adminKey), Name: "Admin", CustomerID: "admin-1", Role: auth.RoleAdmin},
		{ID: "k4", KeyHash: auth.HashKey(testPepper, deliveryKey), Name: "Delivery Partner", CustomerID: "dp-4", Role: auth.RoleDelivery},
	})

	carts := cart.NewService(memory.NewCartStore(), promo.NewRepoValidator(promos), zap.NewNop())
	orders := order.NewService(memory.NewOrderRepository(), order.DefaultShippingPolicy())

	h := NewHandler(Config{APIKeyPepper: testPepper}, products, carts, orders, apikeys)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, apiKey string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("api_key", apiKey)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func doRequestList(t *testing.T, srv *httptest.Server, method, path, apiKey string) (*http.Response, []map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("api_key", apiKey)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/products", "wrong-key", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/cart", customerKey, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductPricingTier(t *testing.T) {
	srv := newTestServer(t)

	_, standard := doRequestList(t, srv, http.MethodGet, "/api/products", customerKey)
	require.Len(t, standard, 3)
	assert.EqualValues(t, 3500, standard[0]["price"])

	_, bulk := doRequestList(t, srv, http.MethodGet, "/api/products", b2bKey)
	assert.EqualValues(t, 2800, bulk[0]["price"])
	assert.EqualValues(t, 3500, bulk[0]["listPrice"])

	// Products without a bulk price keep the retail price for B2B callers.
	assert.EqualValues(t, 850, bulk[2]["price"])
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/cart/items", customerKey,
		map[string]any{"productId": "2", "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1200, body["subtotal"])

	// Same product aggregates into one line.
	resp, body = doRequest(t, srv, http.MethodPost, "/api/cart/items", customerKey,
		map[string]any{"productId": "2", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines := body["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.EqualValues(t, 3, line["quantity"])
	assert.EqualValues(t, 3600, body["subtotal"])

	// Unknown product is rejected.
	resp, _ = doRequest(t, srv, http.MethodPost, "/api/cart/items", customerKey,
		map[string]any{"productId": "999", "quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Quantity zero removes the line.
	lineID := line["id"].(string)
	resp, body = doRequest(t, srv, http.MethodPatch, "/api/cart/items/"+lineID, customerKey,
		map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["lines"])
}

func TestPromoEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	_, _ = doRequest(t, srv, http.MethodPost, "/api/cart/items", customerKey,
		map[string]any{"productId": "2", "quantity": 1})

	// 1200 subtotal: WELCOME10 applies, FLAT500 does not.
	resp, body := doRequest(t, srv, http.MethodPost, "/api/cart/promo", customerKey,
		map[string]any{"code": "welcome10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WELCOME10", body["appliedPromo"])
	assert.EqualValues(t, 120, body["discount"])
	assert.EqualValues(t, 1080, body["total"])

	resp, body = doRequest(t, srv, http.MethodPost, "/api/cart/promo", customerKey,
		map[string]any{"code": "FLAT500"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["message"], "minimum")

	// The earlier promo survives the failed application.
	_, body = doRequest(t, srv, http.MethodGet, "/api/cart", customerKey, nil)
	assert.Equal(t, "WELCOME10", body["appliedPromo"])

	resp, body = doRequest(t, srv, http.MethodDelete, "/api/cart/promo", customerKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["appliedPromo"])
}

func TestCheckoutAndLifecycle(t *testing.T) {
	srv := newTestServer(t)

	_, _ = doRequest(t, srv, http.MethodPost, "/api/cart/items", customerKey,
		map[string]any{"productId": "1", "quantity": 1})
	_, _ = doRequest(t, srv, http.MethodPost, "/api/cart/promo", customerKey,
		map[string]any{"code": "WELCOME10"})

	resp, body := doRequest(t, srv, http.MethodPost, "/api/checkout", customerKey, map[string]any{
		"paymentMethod": "upi",
		"address": map[string]any{
			"name": "John Doe", "street": "123 Main Street", "city": "Delhi",
			"state": "Delhi", "pincode": "110001", "phone": "+91 9876543210",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	orderID := body["id"].(string)
	assert.Equal(t, "placed", body["status"])
	assert.Equal(t, "paid", body["paymentStatus"])
	assert.EqualValues(t, 3500, body["subtotal"])
	assert.EqualValues(t, 350, body["discount"])
	// Discounted 3150 is above the free-shipping threshold.
	assert.EqualValues(t, 0, body["shippingCost"])
	assert.EqualValues(t, 3150, body["total"])
	assert.Len(t, body["timeline"], 1)

	// Checkout cleared the cart.
	_, cartBody := doRequest(t, srv, http.MethodGet, "/api/cart", customerKey, nil)
	assert.Empty(t, cartBody["lines"])

	// Customers cannot mutate status.
	resp, _ = doRequest(t, srv, http.MethodPost, "/api/orders/"+orderID+"/status", customerKey,
		map[string]any{"status": "confirmed", "message": "confirmed"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin advances the lifecycle; each step appends one event.
	resp, body = doRequest(t, srv, http.MethodPost, "/api/orders/"+orderID+"/status", adminKey,
		map[string]any{"status": "confirmed", "message": "Order confirmed and being prepared"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", body["status"])
	assert.Len(t, body["timeline"], 2)

	// Skipping ahead is a conflict.
	resp, _ = doRequest(t, srv, http.MethodPost, "/api/orders/"+orderID+"/status", adminKey,
		map[string]any{"status": "delivered", "message": "??"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown order is 404.
	resp, _ = doRequest(t, srv, http.MethodPost, "/api/orders/ORD-missing/status", adminKey,
		map[string]any{"status": "confirmed", "message": "confirmed"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Assignment is admin-only and shows up for the delivery partner.
	resp, _ = doRequest(t, srv, http.MethodPost, "/api/orders/"+orderID+"/assign", deliveryKey,
		map[string]any{"partnerId": "dp-4", "partnerName": "Delivery Partner"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = doRequest(t, srv, http.MethodPost, "/api/orders/"+orderID+"/assign", adminKey,
		map[string]any{"partnerId": "dp-4", "partnerName": "Delivery Partner"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dp-4", body["deliveryPartnerId"])

	_, assigned := doRequestList(t, srv, http.MethodGet, "/api/orders", deliveryKey)
	require.Len(t, assigned, 1)
	assert.Equal(t, orderID, assigned[0]["id"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPost, "/api/checkout", customerKey, map[string]any{
		"paymentMethod": "card",
		"address":       map[string]any{"name": "John Doe"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrderScoping(t *testing.T) {
	srv := newTestServer(t)

	// Customer 1 checks out sub-threshold; COD stays payment pending.
	_, _ = doRequest(t, srv, http.MethodPost, "/api/cart/items", customerKey,
		map[string]any{"productId": "3", "quantity": 1})
	resp, body := doRequest(t, srv, http.MethodPost, "/api/checkout", customerKey, map[string]any{
		"paymentMethod": "cod",
		"address":       map[string]any{"name": "John Doe"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)
	assert.Equal(t, "pending", body["paymentStatus"])
	assert.EqualValues(t, 150, body["shippingCost"])
	assert.EqualValues(t, 1000, body["total"])

	// The other customer sees an empty list and cannot read the order.
	_, other := doRequestList(t, srv, http.MethodGet, "/api/orders", b2bKey)
	assert.Empty(t, other)
	resp, _ = doRequest(t, srv, http.MethodGet, "/api/orders/"+orderID, b2bKey, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The owner and the admin both see it.
	_, own := doRequestList(t, srv, http.MethodGet, "/api/orders", customerKey)
	require.Len(t, own, 1)
	_, all := doRequestList(t, srv, http.MethodGet, "/api/orders", adminKey)
	require.Len(t, all, 1)
}
