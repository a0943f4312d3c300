// Package catalogtest provides an in-memory catalog for tests. It can add
// artificial latency to exercise callers against a slow provider.
package catalogtest

import (
	"context"
	"time"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
)

type Stub struct {
	*catalog.Memory
	Delay time.Duration
}

// New seeds the stub with products, or with the demo fixtures when none are
// given.
func New(products ...catalog.Product) *Stub {
	if len(products) == 0 {
		products = catalog.Fixtures()
	}
	return &Stub{Memory: catalog.NewMemory(products...)}
}

func (s *Stub) ListProducts(ctx context.Context, f catalog.Filters) (catalog.Page, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.Page{}, err
	}
	return s.Memory.ListProducts(ctx, f)
}

func (s *Stub) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	if err := s.wait(ctx); err != nil {
		return catalog.Product{}, err
	}
	return s.Memory.GetProduct(ctx, id)
}

func (s *Stub) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
