package cart

import "github.com/shopspring/decimal"

// ShippingPolicy is a flat shipping rate waived above a subtotal threshold, both in the base currency
type ShippingPolicy struct {
	FlatRate      decimal.Decimal
	FreeThreshold decimal.Decimal // zero disables free shipping
}

// Fee returns the base currency shipping fee for a base currency subtotal
func (p ShippingPolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	if p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	if p.FlatRate.IsNegative() {
		return decimal.Zero
	}
	return p.FlatRate
}
