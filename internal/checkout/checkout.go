package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/events"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/idempotency"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/logging"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/metrics"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrPrescriptionMissing = errors.New("prescription required")
	ErrInvalidAddress      = errors.New("invalid shipping address")
)

type Request struct {
	ShippingAddress domain.Address `json:"shipping_address"`
	IdempotencyKey  string         `json:"-"`
}

type Result struct {
	Order    domain.Order
	Replayed bool
}

type Service struct {
	carts     *cart.Registry
	orders    domain.Repository
	publisher events.Publisher
	idem      *idempotency.Store
	logger    *zap.Logger
	metrics   *metrics.CartMetrics
	now       func() time.Time
	newID     func() string
	// txEvents hands order.placed to the repository so it is stored in the
	// order's transaction instead of going through publisher.
	txEvents bool
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithTransactionalOutbox saves order.placed together with the order.
func WithTransactionalOutbox() Option {
	return func(s *Service) { s.txEvents = true }
}

func New(carts *cart.Registry, orders domain.Repository, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		carts:     carts,
		orders:    orders,
		publisher: publisher,
		idem:      idempotency.NewStore(),
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder turns the session's cart into an order, publishes order.placed
// and empties the cart. A repeated idempotency key returns the first order
// with Replayed set and does nothing else, before the request is validated.
// When the order cannot be saved the cart gets its items back.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, req Request) (Result, error) {
	if existing, ok, err := s.orders.FindByIdempotencyKey(ctx, sessionID, req.IdempotencyKey); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Order: existing, Replayed: true}, nil
	}

	if missing := req.ShippingAddress.Missing(); len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}

	var found bool
	id, replayed, err := s.idem.Do(sessionID, req.IdempotencyKey, func() (string, error) {
		// A call with this key may have finished since the lookup above.
		if existing, ok, err := s.orders.FindByIdempotencyKey(ctx, sessionID, req.IdempotencyKey); err != nil || ok {
			found = ok
			return existing.ID, err
		}
		o, err := s.place(ctx, sessionID, req)
		return o.ID, err
	})
	replayed = replayed || found
	if errors.Is(err, domain.ErrIdempotencyRace) {
		existing, ok, ferr := s.orders.FindByIdempotencyKey(ctx, sessionID, req.IdempotencyKey)
		if ferr != nil {
			return Result{}, ferr
		}
		if ok {
			return Result{Order: existing, Replayed: true}, nil
		}
	}
	if err != nil {
		return Result{}, err
	}

	o, err := s.orders.Get(ctx, sessionID, id)
	if err != nil {
		return Result{}, fmt.Errorf("load placed order: %w", err)
	}
	return Result{Order: o, Replayed: replayed}, nil
}

func (s *Service) place(ctx context.Context, sessionID string, req Request) (domain.Order, error) {
	start := s.now()
	store, ok := s.carts.Lookup(sessionID)
	if !ok {
		return domain.Order{}, ErrEmptyCart
	}
	taken, err := store.Take(checkable)
	if err != nil {
		return domain.Order{}, err
	}

	o := domain.FromCart(s.newID(), sessionID, taken, req.ShippingAddress, start)
	o.IdempotencyKey = req.IdempotencyKey
	event, err := contracts.NewEvent(contracts.EventOrderPlaced, o)
	if err != nil {
		store.Restore(taken)
		return domain.Order{}, err
	}
	event.OrderID = o.ID
	event.SessionID = sessionID

	if s.txEvents {
		err = s.orders.Save(ctx, o, event)
	} else {
		err = s.orders.Save(ctx, o)
	}
	if err != nil {
		store.Restore(taken)
		return domain.Order{}, err
	}

	if !s.txEvents {
		if err := s.publisher.Publish(ctx, event); err != nil {
			// The order is stored at this point; a failed publish is logged, not returned.
			s.logger.Warn("publish order.placed failed",
				append(logging.Fields{SessionID: sessionID, OrderID: o.ID}.Zap(), zap.Error(err))...)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveOrder(o.Totals.Total.InexactFloat64())
	}
	logging.Log(s.logger, "order placed", logging.Fields{
		SessionID:  sessionID,
		OrderID:    o.ID,
		EventID:    event.EventID,
		Status:     string(o.Status),
		DurationMS: s.now().Sub(start).Milliseconds(),
	})
	return o, nil
}

// checkable rejects carts that cannot become an order.
func checkable(c cart.Cart) error {
	if len(c.Items) == 0 {
		return ErrEmptyCart
	}
	if missing := c.MissingPrescriptions(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, it := range missing {
			names = append(names, it.Product.Name)
		}
		return fmt.Errorf("%w: %s", ErrPrescriptionMissing, strings.Join(names, ", "))
	}
	return nil
}

func (s *Service) Orders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	return s.orders.List(ctx, sessionID)
}

func (s *Service) Order(ctx context.Context, sessionID, id string) (domain.Order, error) {
	return s.orders.Get(ctx, sessionID, id)
}
