package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
// BulkPrice and MinBulkQuantity are only set for items that offer
// business (B2B) pricing.
type Product struct {
	ID              string
	Name            string
	Price           decimal.Decimal
	BulkPrice       decimal.Decimal
	MinBulkQuantity int
	Stock           int
	Category        string
	Image           string
}

// HasBulkPricing reports whether the product carries a B2B price.
func (p Product) HasBulkPricing() bool {
	return p.BulkPrice.IsPositive()
}

// Tier selects which per-unit price applies for a caller. It is resolved
// once per identity, not re-derived at every price lookup.
type Tier int

const (
	// TierStandard uses the regular retail price.
	TierStandard Tier = iota
	// TierBulk uses the product's bulk price when the product defines one.
	TierBulk
)

// TierFor resolves the pricing tier for an account's B2B flag.
func TierFor(b2b bool) Tier {
	if b2b {
		return TierBulk
	}
	return TierStandard
}

// UnitPrice returns the product's per-unit price for the given tier.
// Products without a bulk price fall back to the standard price.
func (p Product) UnitPrice(tier Tier) decimal.Decimal {
	if tier == TierBulk && p.HasBulkPricing() {
		return p.BulkPrice
	}
	return p.Price
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
