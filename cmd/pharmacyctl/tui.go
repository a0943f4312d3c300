package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/client"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/httpapi"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
)

func newTUICmd(opts *options) *cobra.Command {
	var addr domain.Address
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive storefront",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done := opts.shopper()
			defer done()
			_, err := tea.NewProgram(newModel(c, addr), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr.Name, "name", getenv("USER", ""), "recipient name")
	f.StringVar(&addr.Line1, "line1", "", "street address")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	return cmd
}

type shop interface {
	ListProducts(ctx context.Context, q client.ProductQuery) (catalog.Page, error)
	Cart(ctx context.Context) (httpapi.CartView, error)
	AddItem(ctx context.Context, productID string, quantity int, prescriptionFile, notes string) (httpapi.CartView, error)
	RemoveItem(ctx context.Context, itemID string) (httpapi.CartView, error)
	ClearCart(ctx context.Context) (httpapi.CartView, error)
	ToggleCart(ctx context.Context) (httpapi.CartView, error)
	Checkout(ctx context.Context, addr domain.Address, idempotencyKey string) (domain.Order, bool, error)
}

type model struct {
	shop     shop
	address  domain.Address
	products []catalog.Product
	cart     httpapi.CartView
	selected int
	status   string
	busy     bool
	// checkoutKey is kept until an order goes through so a retried
	// checkout cannot place the order twice.
	checkoutKey string
}

func newModel(s shop, addr domain.Address) model {
	return model{shop: s, address: addr, status: "Loading..."}
}

type (
	productsMsg []catalog.Product
	cartMsg     httpapi.CartView
	orderMsg    domain.Order
	errMsg      struct{ err error }
)

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadProducts(), m.cartCmd(m.shop.Cart))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.products)-1 {
				m.selected++
			}
		}
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "enter", "a":
			if len(m.products) == 0 {
				return m, nil
			}
			p := m.products[m.selected]
			m.busy = true
			m.status = "Adding " + p.Name + "..."
			return m, m.cartCmd(func(ctx context.Context) (httpapi.CartView, error) {
				return m.shop.AddItem(ctx, p.ID, 1, "", "")
			})
		case "d":
			if len(m.products) == 0 {
				return m, nil
			}
			it, ok := m.cart.FindByProduct(m.products[m.selected].ID)
			if !ok {
				m.status = "Not in cart"
				return m, nil
			}
			m.busy = true
			return m, m.cartCmd(func(ctx context.Context) (httpapi.CartView, error) {
				return m.shop.RemoveItem(ctx, it.ID)
			})
		case "x":
			m.busy = true
			return m, m.cartCmd(m.shop.ClearCart)
		case "tab":
			m.busy = true
			return m, m.cartCmd(m.shop.ToggleCart)
		case "c":
			if m.checkoutKey == "" {
				m.checkoutKey = uuid.NewString()
			}
			m.busy = true
			m.status = "Placing order..."
			return m, m.checkout()
		}
	case productsMsg:
		m.products = msg
		if m.selected >= len(m.products) {
			m.selected = 0
		}
		m.status = "Ready"
	case cartMsg:
		m.busy = false
		m.cart = httpapi.CartView(msg)
		if strings.HasSuffix(m.status, "...") {
			m.status = "Ready"
		}
	case orderMsg:
		m.busy = false
		m.checkoutKey = ""
		m.status = fmt.Sprintf("Order %s placed, total %s", msg.ID, money(msg.Totals.Total))
		return m, m.cartCmd(m.shop.Cart)
	case errMsg:
		m.busy = false
		m.status = "Error: " + msg.err.Error()
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "Pharmacy storefront")
	fmt.Fprintln(b, "")
	for i, p := range m.products {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		rx := ""
		if p.PrescriptionRequired {
			rx = " [Rx]"
		}
		inCart := ""
		if it, ok := m.cart.FindByProduct(p.ID); ok {
			inCart = fmt.Sprintf("  (x%d in cart)", it.Quantity)
		}
		fmt.Fprintf(b, " %s %-32s %8s%s%s\n", marker, p.Name, money(p.Price), rx, inCart)
	}
	fmt.Fprintln(b, "")
	if m.cart.IsOpen {
		fmt.Fprintf(b, "Cart (%d items)\n", m.cart.ItemCount)
		renderCart(b, m.cart)
	} else {
		fmt.Fprintf(b, "Cart: %d items, total %s\n", m.cart.ItemCount, money(m.cart.Totals.Total))
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: up/down select, enter add, d remove, x clear, tab cart, c checkout, q quit")
	return b.String()
}

func (m model) loadProducts() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		page, err := m.shop.ListProducts(ctx, client.ProductQuery{Sort: catalog.SortName, PageSize: 50})
		if err != nil {
			return errMsg{err}
		}
		return productsMsg(page.Products)
	}
}

func (m model) cartCmd(fn func(ctx context.Context) (httpapi.CartView, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v, err := fn(ctx)
		if err != nil {
			return errMsg{err}
		}
		return cartMsg(v)
	}
}

func (m model) checkout() tea.Cmd {
	key, addr := m.checkoutKey, m.address
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		o, _, err := m.shop.Checkout(ctx, addr, key)
		if err != nil {
			return errMsg{err}
		}
		return orderMsg(o)
	}
}
