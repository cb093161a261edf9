package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShippingPolicy_CostFor(t *testing.T) {
	flat := decimal.RequireFromString("1500")
	threshold := decimal.RequireFromString("50000")

	tests := []struct {
		name     string
		policy   ShippingPolicy
		subtotal string
		want     string
	}{
		{"zero flat rate never charges", ShippingPolicy{}, "100", "0"},
		{"below threshold charges flat rate", ShippingPolicy{FlatRate: flat, FreeOverThreshold: threshold}, "49999.99", "1500"},
		{"at threshold ships free", ShippingPolicy{FlatRate: flat, FreeOverThreshold: threshold}, "50000", "0"},
		{"above threshold ships free", ShippingPolicy{FlatRate: flat, FreeOverThreshold: threshold}, "80000", "0"},
		{"zero threshold always charges", ShippingPolicy{FlatRate: flat}, "1000000", "1500"},
		{"zero subtotal charges flat rate", ShippingPolicy{FlatRate: flat, FreeOverThreshold: threshold}, "0", "1500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.CostFor(decimal.RequireFromString(tt.subtotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), got.String())
		})
	}
}
