package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported promo discount strategies.
type Kind string

const (
	// KindPercentage applies a percentage-based discount to the cart subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed applies a fixed monetary discount capped at the subtotal.
	KindFixed Kind = "fixed"
)

var (
	// ErrInvalidPromo is returned when a promo code is not found or inactive.
	ErrInvalidPromo = errors.New("invalid promo code")
	// ErrExpired is returned when a promo is outside its valid time window.
	ErrExpired = errors.New("promo code expired")
	// ErrMinSubtotal is returned when the cart subtotal does not meet the
	// promo's minimum.
	ErrMinSubtotal = errors.New("cart subtotal below promo minimum")
)

// Rule defines a promo code's discount behaviour and eligibility
// constraints. Rules are immutable once defined; codes match
// case-insensitively.
type Rule struct {
	Code        string          `json:"code"`
	Kind        Kind            `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"minSubtotal"`
	MaxDiscount decimal.Decimal `json:"maxDiscount"`
	ValidUntil  time.Time       `json:"validUntil"`
	Active      bool            `json:"active"`
	Description string          `json:"description,omitempty"`
}

// Repository provides lookup of promo rules by code. Lookups are
// case-insensitive and only return active rules.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}
