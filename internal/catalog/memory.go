package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a catalog held in process. The storefront runs on it when no
// database is configured.
type Memory struct {
	mu       sync.RWMutex
	products []Product
}

func NewMemory(products ...Product) *Memory {
	m := &Memory{}
	m.products = append(m.products, products...)
	return m
}

func (m *Memory) ListProducts(ctx context.Context, f Filters) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Paginate(m.products, f), nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.products[i], nil
	}
	return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (m *Memory) CreateProduct(ctx context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(p.ID) >= 0 {
		return fmt.Errorf("%s: %w", p.ID, ErrAlreadyExists)
	}
	m.products = append(m.products, p)
	return nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(p.ID)
	if i < 0 {
		return fmt.Errorf("%s: %w", p.ID, ErrNotFound)
	}
	m.products[i] = p
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	m.products = append(m.products[:i], m.products[i+1:]...)
	return nil
}

func (m *Memory) indexOf(id string) int {
	for i, p := range m.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
