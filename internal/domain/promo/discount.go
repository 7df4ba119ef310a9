package promo

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Discount calculates the discount amount for the given rule against a cart
// subtotal. For percentage rules the result is capped at the rule's
// MaxDiscount when one is set. The result never exceeds the subtotal, so a
// discounted total can never go negative. Rounded to 2 decimal places.
func Discount(rule *Rule, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal

	switch rule.Kind {
	case KindPercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
		if rule.MaxDiscount.IsPositive() {
			amount = decimal.Min(amount, rule.MaxDiscount)
		}
	case KindFixed:
		amount = rule.Value
	default:
		return zero
	}

	amount = decimal.Min(amount, subtotal)
	return floorAtZero(amount).Round(2)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
