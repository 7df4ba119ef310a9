//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts_NoAuth(t *testing.T) {
	resp := doGet(t, "/api/products", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products", customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 5 {
		t.Fatalf("expected 5 products, got %d", len(products))
	}
	if products[0].Name != "Premium Shisham Dinner Set" {
		t.Errorf("first product: got %q", products[0].Name)
	}
	if products[0].Price != 3500 {
		t.Errorf("retail price: got %v, want 3500", products[0].Price)
	}
}

func TestListProducts_BulkPricing(t *testing.T) {
	resp := doGet(t, "/api/products", b2bKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if products[0].Price != 2800 {
		t.Errorf("bulk price: got %v, want 2800", products[0].Price)
	}
	if products[0].ListPrice != 3500 {
		t.Errorf("list price: got %v, want 3500", products[0].ListPrice)
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/2", customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.Name != "Round Serving Tray - Neem Wood" {
		t.Errorf("name: got %q", p.Name)
	}
	if p.Price != 1200 {
		t.Errorf("price: got %v, want 1200", p.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/999", customerKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
