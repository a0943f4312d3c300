package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Pricing struct {
	TaxRate decimal.Decimal
	// Shipping is free only when the subtotal is strictly above this amount.
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	// Coupons maps an upper-cased code to its discount rate (0.10 = 10%).
	Coupons map[string]decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		ShippingFee:           decimal.RequireFromString("5.99"),
		Coupons: map[string]decimal.Decimal{
			"WELCOME10": decimal.RequireFromString("0.10"),
		},
	}
}

// CouponRate reports the rate for code. Unknown codes are not an error, they
// simply carry no discount.
func (p Pricing) CouponRate(code string) (decimal.Decimal, bool) {
	code = NormalizeCoupon(code)
	if code == "" {
		return decimal.Zero, false
	}
	rate, ok := p.Coupons[code]
	return rate, ok
}

func NormalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Compute derives every total from items and coupon in one pass. Each
// component is rounded to cents and the total is the sum of the rounded parts.
func (p Pricing) Compute(items []Item, coupon string) Totals {
	if len(items) == 0 {
		return zeroTotals()
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(p.TaxRate).Round(2)

	shipping := p.ShippingFee.Round(2)
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if rate, ok := p.CouponRate(coupon); ok {
		discount = subtotal.Mul(rate).Round(2)
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}
