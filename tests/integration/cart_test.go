//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_AddAndAggregate(t *testing.T) {
	clearCart(t, customerKey)

	resp := doPost(t, "/api/cart/items", customerKey, map[string]any{"productId": "2", "quantity": 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp2 := doPost(t, "/api/cart/items", customerKey, map[string]any{"productId": "2", "quantity": 2})
	defer resp2.Body.Close()

	cart := decodeJSON[cartResponse](t, resp2)
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 aggregated line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 3 {
		t.Errorf("quantity: got %d, want 3", cart.Lines[0].Quantity)
	}
	if cart.Subtotal != 3600 {
		t.Errorf("subtotal: got %v, want 3600", cart.Subtotal)
	}
	if cart.ItemCount != 3 {
		t.Errorf("itemCount: got %d, want 3", cart.ItemCount)
	}
}

func TestCart_UnknownProduct(t *testing.T) {
	resp := doPost(t, "/api/cart/items", customerKey, map[string]any{"productId": "999", "quantity": 1})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_PromoLifecycle(t *testing.T) {
	clearCart(t, customerKey)

	resp := doPost(t, "/api/cart/items", customerKey, map[string]any{"productId": "2", "quantity": 1})
	resp.Body.Close()

	// Subtotal 1200: WELCOME10 applies.
	resp = doPost(t, "/api/cart/promo", customerKey, map[string]any{"code": "welcome10"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply promo: expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if cart.AppliedPromo != "WELCOME10" {
		t.Errorf("appliedPromo: got %q, want WELCOME10", cart.AppliedPromo)
	}
	if cart.Discount != 120 {
		t.Errorf("discount: got %v, want 120", cart.Discount)
	}
	if cart.Total != 1080 {
		t.Errorf("total: got %v, want 1080", cart.Total)
	}

	// FLAT500 needs a 2000 subtotal; the rejection must keep WELCOME10.
	resp = doPost(t, "/api/cart/promo", customerKey, map[string]any{"code": "FLAT500"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("underqualified promo: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doGet(t, "/api/cart", customerKey)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.AppliedPromo != "WELCOME10" {
		t.Errorf("promo after failed apply: got %q, want WELCOME10", cart.AppliedPromo)
	}

	resp = doRequest(t, http.MethodDelete, "/api/cart/promo", customerKey, nil)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.AppliedPromo != "" {
		t.Errorf("promo after remove: got %q, want empty", cart.AppliedPromo)
	}
	if cart.Total != 1200 {
		t.Errorf("total after remove: got %v, want 1200", cart.Total)
	}
}

func TestCart_InvalidPromo(t *testing.T) {
	resp := doPost(t, "/api/cart/promo", customerKey, map[string]any{"code": "NOSUCHCODE"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("expected error message")
	}
}

func TestCart_SetQuantityZeroRemovesLine(t *testing.T) {
	clearCart(t, customerKey)

	resp := doPost(t, "/api/cart/items", customerKey, map[string]any{"productId": "3", "quantity": 2})
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}

	resp = doRequest(t, http.MethodPatch, "/api/cart/items/"+cart.Lines[0].ID, customerKey, map[string]any{"quantity": 0})
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Lines) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(cart.Lines))
	}
}

func TestCart_IsolatedPerCustomer(t *testing.T) {
	clearCart(t, customerKey)
	clearCart(t, b2bKey)

	resp := doPost(t, "/api/cart/items", customerKey, map[string]any{"productId": "1", "quantity": 1})
	resp.Body.Close()

	resp = doGet(t, "/api/cart", b2bKey)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Lines) != 0 {
		t.Errorf("expected other customer's cart to be empty, got %d lines", len(cart.Lines))
	}
}
