package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator checks a promo code against a cart subtotal and returns the
// matched rule when the cart is eligible.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Rule, error)
}

// RepoValidator implements Validator by looking up promo rules from a
// Repository and checking eligibility at application time.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the rule for the given code and checks that it is
// active, unexpired, and that the subtotal meets the rule's minimum.
// Eligibility is checked at application time only; it is not re-validated
// as the cart changes afterwards.
func (v *RepoValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Rule, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidPromo) {
			return nil, ErrInvalidPromo
		}
		return nil, errors.Wrap(err, "lookup promo")
	}

	if !rule.Active {
		return nil, ErrInvalidPromo
	}
	if !rule.ValidUntil.IsZero() && v.now().After(rule.ValidUntil) {
		return nil, ErrExpired
	}
	if rule.MinSubtotal.IsPositive() && subtotal.LessThan(rule.MinSubtotal) {
		return nil, ErrMinSubtotal
	}

	return rule, nil
}
