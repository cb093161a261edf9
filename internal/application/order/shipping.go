package order

import "github.com/shopspring/decimal"

// ShippingPolicy computes the shipping cost charged at checkout: a flat rate,
// waived once the line subtotal reaches the free-shipping threshold. A zero
// threshold means shipping is always charged.
type ShippingPolicy struct {
	FlatRate          decimal.Decimal
	FreeOverThreshold decimal.Decimal
}

// CostFor returns the shipping cost for the given line subtotal
func (p ShippingPolicy) CostFor(subtotal decimal.Decimal) decimal.Decimal {
	if p.FlatRate.IsZero() {
		return decimal.Zero
	}
	if p.FreeOverThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeOverThreshold) {
		return decimal.Zero
	}
	return p.FlatRate
}
