package statefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omii/storefront/internal/domain/cart"
	"github.com/omii/storefront/internal/domain/promo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := &cart.State{
		Lines: []cart.Line{{
			ID:        "l1",
			ProductID: "p1",
			Name:      "Premium Shisham Dinner Set",
			UnitPrice: decimal.RequireFromString("3500"),
			Quantity:  2,
			Category:  "kitchen",
		}},
		AppliedPromo: &promo.Rule{
			Code:        "WELCOME10",
			Kind:        promo.KindPercentage,
			Value:       decimal.RequireFromString("10"),
			MinSubtotal: decimal.RequireFromString("1000"),
			Active:      true,
		},
	}
	require.NoError(t, s.Save(ctx, "user-1", st))

	got, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "p1", got.Lines[0].ProductID)
	assert.True(t, st.Lines[0].UnitPrice.Equal(got.Lines[0].UnitPrice))
	require.NotNil(t, got.AppliedPromo)
	assert.Equal(t, "WELCOME10", got.AppliedPromo.Code)
	assert.True(t, st.Subtotal().Equal(got.Subtotal()))
}

func TestLoadMissingYieldsEmptyState(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
	assert.Nil(t, got.AppliedPromo)
}

func TestLoadCorruptFileDiscarded(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart-user-1.json"), []byte("{not json"), 0o644))

	got, err := s.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}

func TestLoadSchemaMismatchDiscarded(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	body := []byte(`{"schemaVersion": 99, "cart": {"lines": [{"id": "l1", "productId": "p1", "quantity": 1}]}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart-user-1.json"), body, 0o644))

	got, err := s.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "user-1", &cart.State{Lines: []cart.Line{{ID: "l1", ProductID: "p1", Quantity: 1}}}))
	require.NoError(t, s.Delete(ctx, "user-1"))
	// Deleting again is fine.
	require.NoError(t, s.Delete(ctx, "user-1"))

	got, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}

func TestOwnerIDCannotEscapeDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../../evil", &cart.State{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
}
