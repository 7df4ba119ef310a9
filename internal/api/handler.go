// Package api exposes the storefront over HTTP. Handlers are hand-written
// on net/http; responses are streamed with go-faster/jx so decimal amounts
// are emitted as exact JSON numbers.
package api

import (
	"net/http"

	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/cart"
	"github.com/omii/storefront/internal/domain/order"
	"github.com/omii/storefront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, image paths are returned as stored.
	ImageBaseURL string
	// APIKeyPepper feeds the HMAC used to hash presented API keys.
	APIKeyPepper []byte
}

// Handler wires the domain services to HTTP routes.
type Handler struct {
	products product.Repository
	carts    *cart.Service
	orders   *order.Service
	apikeys  auth.Repository

	imageBaseURL string
	pepper       []byte
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	carts *cart.Service,
	orders *order.Service,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		products:     products,
		carts:        carts,
		orders:       orders,
		apikeys:      apikeys,
		imageBaseURL: cfg.ImageBaseURL,
		pepper:       cfg.APIKeyPepper,
	}
}

// Routes returns the API route tree. Every route requires a valid API key.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.setCartItemQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)
	mux.HandleFunc("POST /api/cart/promo", h.applyPromo)
	mux.HandleFunc("DELETE /api/cart/promo", h.removePromo)

	mux.HandleFunc("POST /api/checkout", h.checkout)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("POST /api/orders/{id}/status", h.advanceOrderStatus)
	mux.HandleFunc("POST /api/orders/{id}/assign", h.assignDeliveryPartner)

	return h.authenticate(mux)
}
