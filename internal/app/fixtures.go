package app

import (
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/omii/storefront/db"
	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/product"
	"github.com/omii/storefront/internal/domain/promo"
)

type productJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	BulkPrice       decimal.Decimal `json:"bulkPrice"`
	MinBulkQuantity int             `json:"minBulkQuantity"`
	Stock           int             `json:"stock"`
	Category        string          `json:"category"`
	Image           string          `json:"image"`
}

// fixtureProducts parses the embedded catalog used by the memory and file
// storage modes.
func fixtureProducts() ([]product.Product, error) {
	var raw []productJSON
	if err := json.Unmarshal(db.SeedProducts, &raw); err != nil {
		return nil, errors.Wrap(err, "parse embedded products")
	}

	products := make([]product.Product, len(raw))
	for i, p := range raw {
		products[i] = product.Product{
			ID:              p.ID,
			Name:            p.Name,
			Price:           p.Price,
			BulkPrice:       p.BulkPrice,
			MinBulkQuantity: p.MinBulkQuantity,
			Stock:           p.Stock,
			Category:        p.Category,
			Image:           p.Image,
		}
	}
	return products, nil
}

// fixturePromos returns the storefront's built-in promo rules.
func fixturePromos(now time.Time) []promo.Rule {
	validUntil := now.AddDate(1, 0, 0)
	return []promo.Rule{
		{
			Code:        "WELCOME10",
			Kind:        promo.KindPercentage,
			Value:       decimal.NewFromInt(10),
			MinSubtotal: decimal.NewFromInt(1000),
			ValidUntil:  validUntil,
			Active:      true,
			Description: "10% off orders above ₹1000",
		},
		{
			Code:        "FLAT500",
			Kind:        promo.KindFixed,
			Value:       decimal.NewFromInt(500),
			MinSubtotal: decimal.NewFromInt(2000),
			ValidUntil:  validUntil,
			Active:      true,
			Description: "₹500 off orders above ₹2000",
		},
		{
			Code:        "B2B15",
			Kind:        promo.KindPercentage,
			Value:       decimal.NewFromInt(15),
			MinSubtotal: decimal.NewFromInt(5000),
			MaxDiscount: decimal.NewFromInt(2000),
			ValidUntil:  validUntil,
			Active:      true,
			Description: "15% off business orders above ₹5000, up to ₹2000",
		},
	}
}

// fixtureIdentities returns well-known development API keys for the memory
// and file storage modes. Do not use these modes in production.
func fixtureIdentities(pepper []byte) []auth.Identity {
	return []auth.Identity{
		{ID: "dev-customer", KeyHash: auth.HashKey(pepper, "dev-customer-key"), Name: "Dev Customer", CustomerID: "cust-dev-1", Role: auth.RoleCustomer},
		{ID: "dev-b2b", KeyHash: auth.HashKey(pepper, "dev-b2b-key"), Name: "Dev Business", CustomerID: "cust-dev-2", Role: auth.RoleCustomer, B2B: true},
		{ID: "dev-admin", KeyHash: auth.HashKey(pepper, "dev-admin-key"), Name: "Dev Admin", CustomerID: "admin-dev-1", Role: auth.RoleAdmin},
		{ID: "dev-delivery", KeyHash: auth.HashKey(pepper, "dev-delivery-key"), Name: "Dev Delivery", CustomerID: "dp-dev-1", Role: auth.RoleDelivery},
	}
}
