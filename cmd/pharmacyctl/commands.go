package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/client"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/httpapi"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
)

func newProductsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Browse the catalog"}

	var q client.ProductQuery
	var rxOnly, otcOnly bool
	var sort string
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rxOnly && otcOnly {
				return fmt.Errorf("--rx and --otc are mutually exclusive")
			}
			if rxOnly || otcOnly {
				v := rxOnly
				q.Prescription = &v
			}
			q.Sort = catalog.Sort(sort)
			c, done := opts.shopper()
			defer done()
			page, err := c.ListProducts(cmd.Context(), q)
			if err != nil {
				return err
			}
			renderProducts(cmd.OutOrStdout(), page)
			return nil
		},
	}
	list.Flags().StringVar(&q.Category, "category", "", "category filter")
	list.Flags().StringVarP(&q.Search, "search", "q", "", "search name, manufacturer and description")
	list.Flags().BoolVar(&q.InStockOnly, "in-stock", false, "only products in stock")
	list.Flags().BoolVar(&rxOnly, "rx", false, "only prescription products")
	list.Flags().BoolVar(&otcOnly, "otc", false, "only over-the-counter products")
	list.Flags().StringVar(&sort, "sort", "", "name|price_asc|price_desc|rating")
	list.Flags().IntVar(&q.Page, "page", 0, "page number")
	list.Flags().IntVar(&q.PageSize, "page-size", 0, "page size")

	get := &cobra.Command{
		Use:   "get <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done := opts.shopper()
			defer done()
			p, err := c.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderProduct(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func newCartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Inspect and change the cart"}

	// cartRun wraps a cart call and prints the resulting cart.
	cartRun := func(fn func(ctx context.Context, c *client.Client, args []string) (httpapi.CartView, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, done := opts.shopper()
			defer done()
			view, err := fn(cmd.Context(), c, args)
			if err != nil {
				return err
			}
			renderCart(cmd.OutOrStdout(), view)
			return nil
		}
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart and its totals",
		RunE: cartRun(func(ctx context.Context, c *client.Client, _ []string) (httpapi.CartView, error) {
			return c.Cart(ctx)
		}),
	}

	var qty int
	var rxFile, notes string
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: cartRun(func(ctx context.Context, c *client.Client, args []string) (httpapi.CartView, error) {
			return c.AddItem(ctx, args[0], qty, rxFile, notes)
		}),
	}
	add.Flags().IntVarP(&qty, "quantity", "n", 1, "quantity to add")
	add.Flags().StringVar(&rxFile, "prescription", "", "prescription file name")
	add.Flags().StringVar(&notes, "notes", "", "notes for the pharmacist")

	update := &cobra.Command{
		Use:   "update <item-or-product-id> <quantity>",
		Short: "Set an item's quantity; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: cartRun(func(ctx context.Context, c *client.Client, args []string) (httpapi.CartView, error) {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return httpapi.CartView{}, fmt.Errorf("quantity %q: %w", args[1], err)
			}
			id, err := resolveItem(ctx, c, args[0])
			if err != nil {
				return httpapi.CartView{}, err
			}
			return c.UpdateQuantity(ctx, id, n)
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <item-or-product-id>",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: cartRun(func(ctx context.Context, c *client.Client, args []string) (httpapi.CartView, error) {
			id, err := resolveItem(ctx, c, args[0])
			if err != nil {
				return httpapi.CartView{}, err
			}
			return c.RemoveItem(ctx, id)
		}),
	}

	prescription := &cobra.Command{
		Use:   "prescription <item-or-product-id> <file>",
		Short: "Attach a prescription to an item",
		Args:  cobra.ExactArgs(2),
		RunE: cartRun(func(ctx context.Context, c *client.Client, args []string) (httpapi.CartView, error) {
			id, err := resolveItem(ctx, c, args[0])
			if err != nil {
				return httpapi.CartView{}, err
			}
			return c.AttachPrescription(ctx, id, args[1])
		}),
	}

	var dropCoupon bool
	coupon := &cobra.Command{
		Use:   "coupon [code]",
		Short: "Apply a coupon, or remove it with --remove",
		Args:  cobra.MaximumNArgs(1),
		RunE: cartRun(func(ctx context.Context, c *client.Client, args []string) (httpapi.CartView, error) {
			if dropCoupon {
				return c.RemoveCoupon(ctx)
			}
			if len(args) == 0 {
				return httpapi.CartView{}, fmt.Errorf("coupon code required")
			}
			return c.ApplyCoupon(ctx, args[0])
		}),
	}
	coupon.Flags().BoolVar(&dropCoupon, "remove", false, "remove the applied coupon")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: cartRun(func(ctx context.Context, c *client.Client, _ []string) (httpapi.CartView, error) {
			return c.ClearCart(ctx)
		}),
	}

	cmd.AddCommand(show, add, update, remove, prescription, coupon, clearCmd)
	return cmd
}

// resolveItem accepts either a cart item id or the id of a product in the
// cart.
func resolveItem(ctx context.Context, c *client.Client, ref string) (string, error) {
	view, err := c.Cart(ctx)
	if err != nil {
		return "", err
	}
	if it, ok := view.FindItem(ref); ok {
		return it.ID, nil
	}
	if it, ok := view.FindByProduct(ref); ok {
		return it.ID, nil
	}
	return "", fmt.Errorf("%s is not in the cart", ref)
}

func newCheckoutCmd(opts *options) *cobra.Command {
	var addr domain.Address
	var key string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done := opts.shopper()
			defer done()
			o, replayed, err := c.Checkout(cmd.Context(), addr, key)
			if err != nil {
				return err
			}
			if replayed {
				fmt.Fprintln(cmd.OutOrStdout(), "(already placed with this key)")
			}
			renderOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr.Name, "name", "", "recipient name")
	f.StringVar(&addr.Line1, "line1", "", "street address")
	f.StringVar(&addr.Line2, "line2", "", "apartment, suite")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.State, "state", "", "state")
	f.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&addr.Phone, "phone", "", "phone")
	f.StringVar(&key, "idempotency-key", "", "reuse a key to retry safely")
	return cmd
}

func newOrdersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "orders [order-id]",
		Short: "List this session's orders, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done := opts.shopper()
			defer done()
			if len(args) == 1 {
				o, err := c.Order(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderOrder(cmd.OutOrStdout(), o)
				return nil
			}
			orders, err := c.Orders(cmd.Context())
			if err != nil {
				return err
			}
			renderOrders(cmd.OutOrStdout(), orders)
			return nil
		},
	}
}
