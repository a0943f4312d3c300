package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer is told about every dispatched command together with the cart it
// produced. It runs outside the store lock.
type Observer func(cmd Command, after Cart)

type Option func(*Store)

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithObserver(fn Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, fn) }
}

// Store owns one shopper's cart. Dispatch is the only writer; it applies a
// command and returns the resulting snapshot before any other command can run.
type Store struct {
	mu        sync.Mutex
	cart      Cart
	pricing   Pricing
	newID     func() string
	observers []Observer
}

func NewStore(pricing Pricing, opts ...Option) *Store {
	s := &Store{
		cart:    Empty(),
		pricing: pricing,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dispatch(cmd Command) Cart {
	s.mu.Lock()
	s.cart = Apply(s.cart, cmd, s.pricing, s.newID)
	after := s.cart.Clone()
	s.mu.Unlock()

	for _, obs := range s.observers {
		obs(cmd, after)
	}
	return after
}

// Take hands over the cart contents and clears it in one step, so nothing
// added after the check can be lost and no two callers take the same items.
// check runs under the store lock; when it fails the cart is left as is.
func (s *Store) Take(check func(Cart) error) (Cart, error) {
	s.mu.Lock()
	taken := s.cart.Clone()
	if check != nil {
		if err := check(taken); err != nil {
			s.mu.Unlock()
			return Cart{}, err
		}
	}
	s.cart = Apply(s.cart, Clear{}, s.pricing, s.newID)
	after := s.cart.Clone()
	s.mu.Unlock()

	for _, obs := range s.observers {
		obs(Clear{}, after)
	}
	return taken, nil
}

// Restore returns taken contents to the cart.
func (s *Store) Restore(taken Cart) Cart {
	return s.Dispatch(Restore{Items: taken.Items, CouponCode: taken.CouponCode})
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Store) AddItem(p Product, quantity int, prescriptionFile, notes string) Cart {
	return s.Dispatch(AddItem{Product: p, Quantity: quantity, PrescriptionFile: prescriptionFile, Notes: notes})
}

func (s *Store) RemoveItem(itemID string) Cart {
	return s.Dispatch(RemoveItem{ItemID: itemID})
}

func (s *Store) UpdateQuantity(itemID string, quantity int) Cart {
	return s.Dispatch(UpdateQuantity{ItemID: itemID, Quantity: quantity})
}

func (s *Store) AttachPrescription(itemID, file string) Cart {
	return s.Dispatch(AttachPrescription{ItemID: itemID, File: file})
}

func (s *Store) ApplyCoupon(code string) Cart {
	return s.Dispatch(ApplyCoupon{Code: code})
}

func (s *Store) RemoveCoupon() Cart {
	return s.Dispatch(RemoveCoupon{})
}

func (s *Store) Clear() Cart {
	return s.Dispatch(Clear{})
}

func (s *Store) Open() Cart {
	return s.Dispatch(Open{})
}

func (s *Store) Close() Cart {
	return s.Dispatch(Close{})
}

func (s *Store) ToggleVisibility() Cart {
	return s.Dispatch(ToggleVisibility{})
}

// Registry hands out one Store per session id. Stores that go unused are
// dropped by Sweep.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*session
	pricing Pricing
	opts    []Option
}

type session struct {
	store    *Store
	lastUsed time.Time
}

func NewRegistry(pricing Pricing, opts ...Option) *Registry {
	return &Registry{
		stores:  make(map[string]*session),
		pricing: pricing,
		opts:    opts,
	}
}

// Get returns the session's store, creating it on first use.
func (r *Registry) Get(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	if !ok {
		s = &session{store: NewStore(r.pricing, r.opts...)}
		r.stores[sessionID] = s
	}
	s.lastUsed = time.Now()
	return s.store
}

// Lookup returns the session's store without creating one.
func (r *Registry) Lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	if !ok {
		return nil, false
	}
	s.lastUsed = time.Now()
	return s.store, true
}

func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}

// Sweep drops every store last used before cutoff and reports how many went.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.stores {
		if s.lastUsed.Before(cutoff) {
			delete(r.stores, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry) Pricing() Pricing {
	return r.pricing
}
