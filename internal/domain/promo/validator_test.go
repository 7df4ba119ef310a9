package promo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRepo struct {
	rules map[string]*Rule
}

func (m *mapRepo) FindByCode(_ context.Context, code string) (*Rule, error) {
	r, ok := m.rules[strings.ToUpper(code)]
	if !ok {
		return nil, ErrInvalidPromo
	}
	return r, nil
}

func newValidator(now time.Time, rules ...*Rule) *RepoValidator {
	byCode := make(map[string]*Rule, len(rules))
	for _, r := range rules {
		byCode[strings.ToUpper(r.Code)] = r
	}
	v := NewRepoValidator(&mapRepo{rules: byCode})
	v.now = func() time.Time { return now }
	return v
}

func TestValidate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	welcome := &Rule{
		Code:        "WELCOME10",
		Kind:        KindPercentage,
		Value:       d("10"),
		MinSubtotal: d("1000"),
		ValidUntil:  now.Add(30 * 24 * time.Hour),
		Active:      true,
	}

	t.Run("eligible cart matches rule", func(t *testing.T) {
		v := newValidator(now, welcome)
		rule, err := v.Validate(context.Background(), "WELCOME10", d("1500"))
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", rule.Code)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		v := newValidator(now, welcome)
		rule, err := v.Validate(context.Background(), "welcome10", d("1500"))
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", rule.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		v := newValidator(now, welcome)
		_, err := v.Validate(context.Background(), "NOPE", d("1500"))
		require.ErrorIs(t, err, ErrInvalidPromo)
	})

	t.Run("inactive rule", func(t *testing.T) {
		inactive := *welcome
		inactive.Active = false
		v := newValidator(now, &inactive)
		_, err := v.Validate(context.Background(), "WELCOME10", d("1500"))
		require.ErrorIs(t, err, ErrInvalidPromo)
	})

	t.Run("expired rule", func(t *testing.T) {
		expired := *welcome
		expired.ValidUntil = now.Add(-time.Hour)
		v := newValidator(now, &expired)
		_, err := v.Validate(context.Background(), "WELCOME10", d("1500"))
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("subtotal below minimum", func(t *testing.T) {
		v := newValidator(now, welcome)
		_, err := v.Validate(context.Background(), "WELCOME10", d("900"))
		require.ErrorIs(t, err, ErrMinSubtotal)
	})
}
