package order

import "github.com/shopspring/decimal"

// ShippingPolicy decides the delivery fee for an order. Orders whose
// discounted total reaches FreeThreshold ship free; everything below pays
// the flat fee.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	FlatFee       decimal.Decimal
}

// DefaultShippingPolicy mirrors the storefront's standing offer: free
// shipping at 2000, a flat 150 fee below that.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: decimal.NewFromInt(2000),
		FlatFee:       decimal.NewFromInt(150),
	}
}

// CostFor returns the shipping cost for a discounted order total.
func (p ShippingPolicy) CostFor(discountedTotal decimal.Decimal) decimal.Decimal {
	if discountedTotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}
