package catalogtest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog/catalogtest"
)

func TestStub_DefaultsToFixtures(t *testing.T) {
	s := catalogtest.New()

	page, err := s.ListProducts(context.Background(), catalog.Filters{PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Fixtures()), page.Total)
}

func TestStub_GetProduct(t *testing.T) {
	s := catalogtest.New()

	p, err := s.GetProduct(context.Background(), "prod-vitamin-d3")
	require.NoError(t, err)
	assert.Equal(t, "Vitamin D3", p.Name)

	_, err = s.GetProduct(context.Background(), "prod-unknown")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestStub_DelayHonoursContext(t *testing.T) {
	s := catalogtest.New()
	s.Delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.GetProduct(ctx, "prod-vitamin-d3")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestStub_Writer(t *testing.T) {
	ctx := context.Background()
	s := catalogtest.New(catalog.Product{ID: "a", Name: "A"})

	require.NoError(t, s.CreateProduct(ctx, catalog.Product{ID: "b", Name: "B"}))
	assert.ErrorIs(t, s.CreateProduct(ctx, catalog.Product{ID: "b"}), catalog.ErrAlreadyExists)

	require.NoError(t, s.UpdateProduct(ctx, catalog.Product{ID: "b", Name: "Bee"}))
	p, err := s.GetProduct(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Bee", p.Name)
	assert.ErrorIs(t, s.UpdateProduct(ctx, catalog.Product{ID: "zz"}), catalog.ErrNotFound)

	require.NoError(t, s.DeleteProduct(ctx, "a"))
	assert.ErrorIs(t, s.DeleteProduct(ctx, "a"), catalog.ErrNotFound)

	page, err := s.ListProducts(ctx, catalog.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
