// Package cart implements the cart and pricing engine: line aggregation,
// promo application, and total derivation. Subtotal, discount, and final
// total are always computed from the lines, never stored.
package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/omii/storefront/internal/domain/promo"
)

// Line is a single cart entry. Lines are unique by ID; the aggregation key
// is ProductID. UnitPrice is the tier-resolved price snapshot taken when the
// line was added.
type Line struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	Category  string          `json:"category"`
}

// State holds a cart's lines and the promo applied to it, if any.
// A line with quantity <= 0 is never kept: mutations remove it instead.
type State struct {
	Lines        []Line      `json:"lines"`
	AppliedPromo *promo.Rule `json:"appliedPromo,omitempty"`
}

// Subtotal returns the sum of unit price times quantity across all lines.
func (s *State) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// DiscountAmount returns the discount the applied promo yields against the
// current subtotal, or zero when no promo is applied. The amount is clamped
// so it never exceeds the subtotal.
func (s *State) DiscountAmount() decimal.Decimal {
	if s.AppliedPromo == nil {
		return decimal.Zero
	}
	return promo.Discount(s.AppliedPromo, s.Subtotal())
}

// FinalTotal returns the subtotal less the discount, floored at zero.
func (s *State) FinalTotal() decimal.Decimal {
	total := s.Subtotal().Sub(s.DiscountAmount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (s *State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Store persists cart state per owner. Load returns an empty state, not an
// error, for owners without a saved cart.
type Store interface {
	Load(ctx context.Context, owner string) (*State, error)
	Save(ctx context.Context, owner string, state *State) error
	Delete(ctx context.Context, owner string) error
}
