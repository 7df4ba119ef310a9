package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierBulk, TierFor(true))
	assert.Equal(t, TierStandard, TierFor(false))
}

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		tier Tier
		want decimal.Decimal
	}{
		{
			name: "standard tier uses retail price",
			p:    Product{Price: d("3500"), BulkPrice: d("2800"), MinBulkQuantity: 10},
			tier: TierStandard,
			want: d("3500"),
		},
		{
			name: "bulk tier uses bulk price",
			p:    Product{Price: d("3500"), BulkPrice: d("2800"), MinBulkQuantity: 10},
			tier: TierBulk,
			want: d("2800"),
		},
		{
			name: "bulk tier without bulk price falls back to retail",
			p:    Product{Price: d("1200")},
			tier: TierBulk,
			want: d("1200"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.p.UnitPrice(tt.tier)))
		})
	}
}
