package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), field)
}

func itemOf(price string, qty int) Item {
	return Item{ID: "i", ProductID: "p", Product: Product{ID: "p", Price: money(price)}, Quantity: qty}
}

func TestCompute_ExampleScenario(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{itemOf("12.99", 2)}, "")

	assertMoney(t, "25.98", totals.Subtotal, "subtotal")
	assertMoney(t, "2.08", totals.Tax, "tax")
	assertMoney(t, "5.99", totals.Shipping, "shipping")
	assertMoney(t, "0.00", totals.Discount, "discount")
	assertMoney(t, "34.05", totals.Total, "total")
}

func TestCompute_Welcome10(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{itemOf("25.00", 4)}, "WELCOME10")

	assertMoney(t, "100.00", totals.Subtotal, "subtotal")
	assertMoney(t, "8.00", totals.Tax, "tax")
	assertMoney(t, "0.00", totals.Shipping, "shipping")
	assertMoney(t, "10.00", totals.Discount, "discount")
	assertMoney(t, "98.00", totals.Total, "total")
}

func TestCompute_ShippingThreshold(t *testing.T) {
	pricing := DefaultPricing()

	tests := []struct {
		name     string
		price    string
		shipping string
	}{
		{"below threshold", "49.99", "5.99"},
		{"exactly at threshold", "50.00", "5.99"},
		{"one cent above", "50.01", "0.00"},
		{"well above", "120.00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := pricing.Compute([]Item{itemOf(tt.price, 1)}, "")
			assertMoney(t, tt.shipping, totals.Shipping, "shipping")
		})
	}
}

func TestCompute_UnknownCouponHasNoDiscount(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{itemOf("30.00", 1)}, "NOT-A-CODE")

	assertMoney(t, "0.00", totals.Discount, "discount")
	assertMoney(t, "38.39", totals.Total, "total")
}

func TestCompute_CouponIsCaseInsensitive(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{itemOf("100.00", 1)}, "  welcome10 ")

	assertMoney(t, "10.00", totals.Discount, "discount")
}

func TestCompute_EmptyCartIsAllZero(t *testing.T) {
	totals := DefaultPricing().Compute(nil, "WELCOME10")

	for name, v := range map[string]decimal.Decimal{
		"subtotal": totals.Subtotal,
		"tax":      totals.Tax,
		"shipping": totals.Shipping,
		"discount": totals.Discount,
		"total":    totals.Total,
	} {
		assertMoney(t, "0.00", v, name)
	}
}

func TestCompute_RoundsEachComponentHalfAwayFromZero(t *testing.T) {
	// 0.3125 * 2 = 0.625 rounds up to 0.63; tax on 0.63 is 0.0504.
	totals := DefaultPricing().Compute([]Item{itemOf("0.3125", 2)}, "")
	assertMoney(t, "0.63", totals.Subtotal, "subtotal")
	assertMoney(t, "0.05", totals.Tax, "tax")
	assertMoney(t, "6.67", totals.Total, "total")

	// tax on 10.56 is 0.8448.
	totals = DefaultPricing().Compute([]Item{itemOf("10.5625", 1)}, "")
	assertMoney(t, "10.56", totals.Subtotal, "subtotal")
	assertMoney(t, "0.84", totals.Tax, "tax")
}
