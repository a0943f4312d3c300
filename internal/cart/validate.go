package cart

import (
	"errors"
	"strings"
)

var (
	ErrProductRequired  = errors.New("product id is required")
	ErrQuantityPositive = errors.New("quantity must be positive")
	ErrNegativePrice    = errors.New("price cannot be negative")
)

// ValidateAdd is for callers; the store itself accepts whatever it is given.
func ValidateAdd(p Product, quantity int) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrProductRequired
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if quantity <= 0 {
		return ErrQuantityPositive
	}
	return nil
}
