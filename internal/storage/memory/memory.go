// Package memory provides in-memory implementations of every repository
// interface. It backs the mock-data storage mode and the unit tests; all
// implementations are safe for concurrent use and hand out copies, never
// internal slices.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/cart"
	"github.com/omii/storefront/internal/domain/order"
	"github.com/omii/storefront/internal/domain/product"
	"github.com/omii/storefront/internal/domain/promo"
)

// --- Products ---

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository serves a fixed catalog from memory.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]product.Product
	ids      []string
}

// NewProductRepository builds a repository over the given catalog fixtures.
func NewProductRepository(products []product.Product) *ProductRepository {
	byID := make(map[string]product.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	return &ProductRepository{products: byID, ids: ids}
}

// List returns the catalog in insertion order.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.Product, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.products[id])
	}
	return out, nil
}

// GetByID returns a single product or product.ErrNotFound.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Promo rules ---

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository serves promo rules from memory, keyed case-insensitively.
type PromoRepository struct {
	mu    sync.RWMutex
	rules map[string]promo.Rule
}

// NewPromoRepository builds a repository over the given rules.
func NewPromoRepository(rules []promo.Rule) *PromoRepository {
	byCode := make(map[string]promo.Rule, len(rules))
	for _, r := range rules {
		byCode[strings.ToUpper(r.Code)] = r
	}
	return &PromoRepository{rules: byCode}
}

// FindByCode looks up a rule case-insensitively. Inactive rules are
// returned as promo.ErrInvalidPromo, matching the SQL-backed repository.
func (r *PromoRepository) FindByCode(_ context.Context, code string) (*promo.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[strings.ToUpper(code)]
	if !ok || !rule.Active {
		return nil, promo.ErrInvalidPromo
	}
	return &rule, nil
}

// --- Carts ---

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps per-owner cart state in memory.
type CartStore struct {
	mu     sync.RWMutex
	states map[string]*cart.State
}

// NewCartStore creates an empty cart store.
func NewCartStore() *CartStore {
	return &CartStore{states: make(map[string]*cart.State)}
}

// Load returns a copy of the owner's cart, or an empty state.
func (s *CartStore) Load(_ context.Context, owner string) (*cart.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[owner]
	if !ok {
		return &cart.State{}, nil
	}
	return copyCartState(st), nil
}

// Save stores a copy of the state for the owner.
func (s *CartStore) Save(_ context.Context, owner string, st *cart.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[owner] = copyCartState(st)
	return nil
}

// Delete removes the owner's cart.
func (s *CartStore) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, owner)
	return nil
}

func copyCartState(st *cart.State) *cart.State {
	cp := &cart.State{
		Lines: append([]cart.Line(nil), st.Lines...),
	}
	if st.AppliedPromo != nil {
		rule := *st.AppliedPromo
		cp.AppliedPromo = &rule
	}
	return cp
}

// --- Orders ---

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps orders in memory with optimistic version checks.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewOrderRepository creates an empty order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*order.Order)}
}

// Create stores a new order.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[o.ID] = copyOrder(o)
	return nil
}

// Get returns a copy of the order or order.ErrNotFound.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return copyOrder(o), nil
}

// Update replaces the stored order when the caller's version matches,
// incrementing the version. A mismatch returns order.ErrConflict.
func (r *OrderRepository) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if stored.Version != o.Version {
		return order.ErrConflict
	}

	cp := copyOrder(o)
	cp.Version++
	r.orders[o.ID] = cp
	o.Version = cp.Version
	return nil
}

// ByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	return r.filter(func(o *order.Order) bool { return o.CustomerID == customerID }), nil
}

// ByDeliveryPartner returns the orders assigned to a partner, newest first.
func (r *OrderRepository) ByDeliveryPartner(_ context.Context, partnerID string) ([]order.Order, error) {
	return r.filter(func(o *order.Order) bool {
		return partnerID != "" && o.DeliveryPartnerID == partnerID
	}), nil
}

// All returns every order, newest first.
func (r *OrderRepository) All(_ context.Context) ([]order.Order, error) {
	return r.filter(func(*order.Order) bool { return true }), nil
}

func (r *OrderRepository) filter(keep func(*order.Order) bool) []order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []order.Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func copyOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.LineItem(nil), o.Items...)
	cp.Timeline = append([]order.TimelineEvent(nil), o.Timeline...)
	return &cp
}

// --- API keys ---

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository serves API key identities from memory, keyed by hash.
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]auth.Identity
}

// NewAPIKeyRepository builds a repository over the given identities.
func NewAPIKeyRepository(identities []auth.Identity) *APIKeyRepository {
	byHash := make(map[string]auth.Identity, len(identities))
	for _, id := range identities {
		byHash[id.KeyHash] = id
	}
	return &APIKeyRepository{keys: byHash}
}

// FindByHash looks up an identity by its key hash.
func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &id, nil
}
