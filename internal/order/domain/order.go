package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrIdempotencyRace = errors.New("idempotency race")
)

type OrderStatus string

const OrderStatusPlaced OrderStatus = "PLACED"

type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone,omitempty"`
}

// Missing lists the required address fields that are blank.
func (a Address) Missing() []string {
	var out []string
	check := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, field)
		}
	}
	check("name", a.Name)
	check("line1", a.Line1)
	check("city", a.City)
	check("postal_code", a.PostalCode)
	return out
}

type OrderItem struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	PrescriptionFile string          `json:"prescription_file,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string      `json:"id"`
	SessionID       string      `json:"-"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	Totals          cart.Totals `json:"totals"`
	CouponCode      string      `json:"coupon_code,omitempty"`
	ShippingAddress Address     `json:"shipping_address"`
	IdempotencyKey  string      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
}

// FromCart freezes a cart snapshot into a placed order. Totals are copied,
// not recomputed, so the order shows exactly what the shopper saw.
func FromCart(id, sessionID string, c cart.Cart, addr Address, now time.Time) Order {
	items := make([]OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, OrderItem{
			ProductID:        it.ProductID,
			Name:             it.Product.Name,
			UnitPrice:        it.Product.Price,
			Quantity:         it.Quantity,
			PrescriptionFile: it.PrescriptionFile,
		})
	}
	return Order{
		ID:              id,
		SessionID:       sessionID,
		Status:          OrderStatusPlaced,
		Items:           items,
		Totals:          c.Totals,
		CouponCode:      c.CouponCode,
		ShippingAddress: addr,
		CreatedAt:       now.UTC(),
	}
}

// Repository keeps a session's order history.
type Repository interface {
	// Save returns ErrIdempotencyRace when another order already holds the
	// session's idempotency key. events are stored with the order or not at
	// all.
	Save(ctx context.Context, o Order, events ...contracts.Event) error
	List(ctx context.Context, sessionID string) ([]Order, error)
	Get(ctx context.Context, sessionID, id string) (Order, error)
	FindByIdempotencyKey(ctx context.Context, sessionID, key string) (Order, bool, error)
}
