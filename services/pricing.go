package services

// PricingConfig carries the shipping constants, loaded from configuration
// rather than hardcoded at call sites.
type PricingConfig struct {
	FreeShippingThreshold int64
	StandardShippingFee   int64
}

// ShippingFee is zero at or above the free-shipping threshold, otherwise
// the standard flat fee.
func (p PricingConfig) ShippingFee(subtotal int64) int64 {
	if subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.StandardShippingFee
}

// FinalTotal combines the pricing breakdown, clamped at zero so stacked
// discounts can never produce a negative total.
func FinalTotal(subtotal, discount, voucherDiscount, shippingFee int64) int64 {
	total := subtotal - discount - voucherDiscount + shippingFee
	if total < 0 {
		return 0
	}
	return total
}

// PercentOf returns pct percent of amount, rounded half-up. Currency is
// integer VND so this is the only place fractional math appears.
func PercentOf(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
