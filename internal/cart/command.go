package cart

import (
	"fmt"
	"strings"
)

// Command is the closed set of cart mutations. The unexported method keeps
// other packages from adding variants, so Apply's switch stays exhaustive.
type Command interface {
	Kind() string
	command()
}

type AddItem struct {
	Product          Product
	Quantity         int
	PrescriptionFile string
	Notes            string
}

type RemoveItem struct {
	ItemID string
}

type UpdateQuantity struct {
	ItemID   string
	Quantity int
}

type AttachPrescription struct {
	ItemID string
	File   string
}

type ApplyCoupon struct {
	Code string
}

type RemoveCoupon struct{}

type Clear struct{}

type Open struct{}

type Close struct{}

type ToggleVisibility struct{}

// Restore puts items taken by a failed checkout back into the cart. Items
// whose product is already in the cart merge quantities; the cart's own
// coupon wins over the taken one.
type Restore struct {
	Items      []Item
	CouponCode string
}

func (AddItem) Kind() string            { return "add_item" }
func (RemoveItem) Kind() string         { return "remove_item" }
func (UpdateQuantity) Kind() string     { return "update_quantity" }
func (AttachPrescription) Kind() string { return "attach_prescription" }
func (ApplyCoupon) Kind() string        { return "apply_coupon" }
func (RemoveCoupon) Kind() string       { return "remove_coupon" }
func (Clear) Kind() string              { return "clear" }
func (Open) Kind() string               { return "open" }
func (Close) Kind() string              { return "close" }
func (ToggleVisibility) Kind() string   { return "toggle_visibility" }
func (Restore) Kind() string            { return "restore" }

func (AddItem) command()            {}
func (RemoveItem) command()         {}
func (UpdateQuantity) command()     {}
func (AttachPrescription) command() {}
func (ApplyCoupon) command()        {}
func (RemoveCoupon) command()       {}
func (Clear) command()              {}
func (Open) command()               {}
func (Close) command()              {}
func (ToggleVisibility) command()   {}
func (Restore) command()            {}

// Apply returns the cart that results from cmd. The input is not modified.
// Every command that touches items or the coupon ends in a single Compute
// call; visibility commands leave totals alone.
func Apply(c Cart, cmd Command, pricing Pricing, newID func() string) Cart {
	next := c.Clone()

	switch cmd := cmd.(type) {
	case AddItem:
		next = addItem(next, cmd, newID)
	case RemoveItem:
		next = removeItem(next, cmd.ItemID)
	case UpdateQuantity:
		if cmd.Quantity <= 0 {
			next = removeItem(next, cmd.ItemID)
			break
		}
		if i := next.indexOf(cmd.ItemID); i >= 0 {
			next.Items[i].Quantity = cmd.Quantity
		}
	case AttachPrescription:
		if i := next.indexOf(cmd.ItemID); i >= 0 {
			next.Items[i].PrescriptionFile = cmd.File
			next.Items[i].PrescriptionUploaded = true
		}
	case ApplyCoupon:
		next.CouponCode = strings.TrimSpace(cmd.Code)
	case RemoveCoupon:
		next.CouponCode = ""
	case Clear:
		next.Items = []Item{}
		next.CouponCode = ""
	case Restore:
		next = restore(next, cmd)
	case Open:
		next.IsOpen = true
		return next
	case Close:
		next.IsOpen = false
		return next
	case ToggleVisibility:
		next.IsOpen = !next.IsOpen
		return next
	default:
		panic(fmt.Sprintf("cart: unhandled command %T", cmd))
	}

	next.Totals = pricing.Compute(next.Items, next.CouponCode)
	return next
}

func addItem(c Cart, cmd AddItem, newID func() string) Cart {
	for i := range c.Items {
		if c.Items[i].ProductID != cmd.Product.ID {
			continue
		}
		c.Items[i].Quantity += cmd.Quantity
		if cmd.PrescriptionFile != "" {
			c.Items[i].PrescriptionFile = cmd.PrescriptionFile
			c.Items[i].PrescriptionUploaded = true
		}
		return c
	}

	c.Items = append(c.Items, Item{
		ID:                   newID(),
		ProductID:            cmd.Product.ID,
		Product:              cmd.Product,
		Quantity:             cmd.Quantity,
		PrescriptionUploaded: cmd.PrescriptionFile != "",
		PrescriptionFile:     cmd.PrescriptionFile,
		Notes:                cmd.Notes,
	})
	return c
}

func removeItem(c Cart, itemID string) Cart {
	i := c.indexOf(itemID)
	if i < 0 {
		return c
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return c
}

func restore(c Cart, cmd Restore) Cart {
	for _, it := range cmd.Items {
		merged := false
		for i := range c.Items {
			if c.Items[i].ProductID == it.ProductID {
				c.Items[i].Quantity += it.Quantity
				merged = true
				break
			}
		}
		if !merged {
			c.Items = append(c.Items, it)
		}
	}
	if c.CouponCode == "" {
		c.CouponCode = cmd.CouponCode
	}
	return c
}
