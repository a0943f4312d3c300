package cart

import "github.com/shopspring/decimal"

// Product is the slice of a catalog record the cart keeps. It is copied into
// the item when the product is first added, so later catalog edits do not
// reach items that are already in a cart.
type Product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Manufacturer         string          `json:"manufacturer,omitempty"`
	Strength             string          `json:"strength,omitempty"`
	Form                 string          `json:"form,omitempty"`
	Price                decimal.Decimal `json:"price"`
	OriginalPrice        decimal.Decimal `json:"original_price"`
	PrescriptionRequired bool            `json:"prescription_required"`
}

type Item struct {
	ID                   string  `json:"id"`
	ProductID            string  `json:"product_id"`
	Product              Product `json:"product"`
	Quantity             int     `json:"quantity"`
	PrescriptionUploaded bool    `json:"prescription_uploaded"`
	PrescriptionFile     string  `json:"prescription_file,omitempty"`
	Notes                string  `json:"notes,omitempty"`
}

// LineTotal is price × quantity, unrounded.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Cart is a value snapshot. Totals are derived from Items and CouponCode and
// are only ever written by Apply.
type Cart struct {
	Items      []Item `json:"items"`
	Totals     `json:"totals"`
	CouponCode string `json:"coupon_code,omitempty"`
	IsOpen     bool   `json:"is_open"`
}

func Empty() Cart {
	return Cart{Items: []Item{}, Totals: zeroTotals()}
}

func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]Item, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) FindItem(itemID string) (Item, bool) {
	if i := c.indexOf(itemID); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

func (c Cart) FindByProduct(productID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// MissingPrescriptions lists items whose product needs a prescription that has
// not been uploaded yet.
func (c Cart) MissingPrescriptions() []Item {
	var out []Item
	for _, it := range c.Items {
		if it.Product.PrescriptionRequired && !it.PrescriptionUploaded {
			out = append(out, it)
		}
	}
	return out
}

func (c Cart) indexOf(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func zeroTotals() Totals {
	return Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}
}
