package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/httpapi"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func renderProducts(w io.Writer, page catalog.Page) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tRX")
	for _, p := range page.Products {
		rx := ""
		if p.PrescriptionRequired {
			rx = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Category, money(p.Price), p.StockQuantity, rx)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "page %d/%d, %d products\n", page.Page, page.TotalPages, page.Total)
}

func renderProduct(w io.Writer, p catalog.Product) {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
	if p.Manufacturer != "" {
		fmt.Fprintf(w, "  by %s\n", p.Manufacturer)
	}
	if p.Strength != "" || p.Form != "" {
		fmt.Fprintf(w, "  %s\n", strings.TrimSpace(p.Strength+" "+p.Form))
	}
	price := money(p.Price)
	if p.OriginalPrice.GreaterThan(p.Price) {
		price += " (was " + money(p.OriginalPrice) + ")"
	}
	fmt.Fprintf(w, "  price:  %s\n", price)
	fmt.Fprintf(w, "  stock:  %d\n", p.StockQuantity)
	fmt.Fprintf(w, "  rating: %.1f\n", p.Rating)
	if p.PrescriptionRequired {
		fmt.Fprintln(w, "  prescription required")
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
}

func renderCart(w io.Writer, v httpapi.CartView) {
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tPRICE\tLINE\tRX")
	for _, it := range v.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			it.ID, it.Product.Name, it.Quantity, money(it.Product.Price), money(it.LineTotal()), rxState(it))
	}
	_ = tw.Flush()
	renderTotals(w, v.Totals, v.CouponCode, v.CouponValid)
	if len(v.MissingPrescriptions) > 0 {
		fmt.Fprintf(w, "prescription needed for: %s\n", strings.Join(v.MissingPrescriptions, ", "))
	}
}

func rxState(it cart.Item) string {
	switch {
	case !it.Product.PrescriptionRequired:
		return ""
	case it.PrescriptionUploaded:
		return "attached"
	default:
		return "missing"
	}
}

func renderTotals(w io.Writer, t cart.Totals, coupon string, couponValid bool) {
	fmt.Fprintf(w, "subtotal: %s\n", money(t.Subtotal))
	if coupon != "" {
		note := ""
		if !couponValid {
			note = " (not recognised)"
		}
		fmt.Fprintf(w, "discount: -%s  [%s%s]\n", money(t.Discount), coupon, note)
	}
	fmt.Fprintf(w, "tax:      %s\n", money(t.Tax))
	fmt.Fprintf(w, "shipping: %s\n", money(t.Shipping))
	fmt.Fprintf(w, "total:    %s\n", money(t.Total))
}

func renderOrder(w io.Writer, o domain.Order) {
	fmt.Fprintf(w, "order %s  %s  %s\n", o.ID, o.Status, o.CreatedAt.Local().Format("2006-01-02 15:04"))
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %d x %s  %s\n", it.Quantity, it.Name, money(it.LineTotal()))
	}
	renderTotals(w, o.Totals, o.CouponCode, true)
	a := o.ShippingAddress
	fmt.Fprintf(w, "ship to: %s, %s, %s %s\n", a.Name, a.Line1, a.City, a.PostalCode)
}

func renderOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no orders yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tPLACED\tITEMS\tTOTAL\tSTATUS")
	for _, o := range orders {
		n := 0
		for _, it := range o.Items {
			n += it.Quantity
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", o.ID, o.CreatedAt.Local().Format("2006-01-02 15:04"), n, money(o.Totals.Total), o.Status)
	}
	_ = tw.Flush()
}
