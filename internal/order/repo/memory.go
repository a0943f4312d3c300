package repo

import (
	"context"
	"sync"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
)

// Memory is the order history used when no database is configured. It is
// lost on restart.
type Memory struct {
	mu        sync.RWMutex
	bySession map[string][]domain.Order
	events    []contracts.Event
}

func NewMemory() *Memory {
	return &Memory{bySession: map[string][]domain.Order{}}
}

func (m *Memory) Save(ctx context.Context, o domain.Order, events ...contracts.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bySession[o.SessionID] {
		if o.IdempotencyKey != "" && existing.IdempotencyKey == o.IdempotencyKey {
			return domain.ErrIdempotencyRace
		}
	}
	m.bySession[o.SessionID] = append(m.bySession[o.SessionID], o)
	m.events = append(m.events, events...)
	return nil
}

// Events returns the events saved alongside orders, oldest first.
func (m *Memory) Events() []contracts.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]contracts.Event(nil), m.events...)
}

// List returns the newest order first.
func (m *Memory) List(ctx context.Context, sessionID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orders := m.bySession[sessionID]
	out := make([]domain.Order, 0, len(orders))
	for i := len(orders) - 1; i >= 0; i-- {
		out = append(out, orders[i])
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, sessionID, id string) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.bySession[sessionID] {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrNotFound
}

func (m *Memory) FindByIdempotencyKey(ctx context.Context, sessionID, key string) (domain.Order, bool, error) {
	if key == "" {
		return domain.Order{}, false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.bySession[sessionID] {
		if o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return domain.Order{}, false, nil
}
