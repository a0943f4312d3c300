package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func placedOrder() domain.Order {
	return domain.Order{
		ID:     "3f2a9c1e-7b44-4d0e-9a51-2c8f0e6d1b77",
		Status: domain.OrderStatusPlaced,
		Items: []domain.OrderItem{
			{ProductID: "prod-ibuprofen-200", Name: "Ibuprofen", UnitPrice: decimal.RequireFromString("12.99"), Quantity: 2},
			{ProductID: "prod-amoxicillin-500", Name: "Amoxicillin", UnitPrice: decimal.RequireFromString("15.00"), Quantity: 1, PrescriptionFile: "rx.pdf"},
		},
		Totals: cart.Totals{
			Subtotal: decimal.RequireFromString("40.98"),
			Tax:      decimal.RequireFromString("3.28"),
			Shipping: decimal.RequireFromString("5.99"),
			Discount: decimal.RequireFromString("4.10"),
			Total:    decimal.RequireFromString("46.15"),
		},
		CouponCode:      "WELCOME10",
		ShippingAddress: domain.Address{Name: "Asha Rao", Line1: "1 MG Road", City: "Pune", PostalCode: "411001"},
	}
}

func message(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	e, err := contracts.NewEvent(eventType, payload)
	require.NoError(t, err)
	e.SessionID = "s1"
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return kafkago.Message{Value: data}
}

func TestRender(t *testing.T) {
	subject, body := Render(placedOrder())
	assert.Equal(t, "Your pharmacy order 3f2a9c1e is confirmed", subject)
	for _, want := range []string{
		"Hi Asha Rao",
		"2 x Ibuprofen  $25.98",
		"prescription: rx.pdf",
		"Shipping  $5.99",
		"Discount -$4.10 (WELCOME10)",
		"Total     $46.15",
		"Pune",
	} {
		assert.Contains(t, body, want)
	}

	free := placedOrder()
	free.Totals.Shipping = decimal.Zero
	free.Totals.Discount = decimal.Zero
	_, body = Render(free)
	assert.Contains(t, body, "Shipping  FREE")
	assert.NotContains(t, body, "Discount")
}

func TestDecode(t *testing.T) {
	n, err := Decode(message(t, contracts.EventOrderPlaced, placedOrder()).Value)
	require.NoError(t, err)
	assert.Equal(t, placedOrder().ID, n.OrderID)
	assert.Equal(t, "s1", n.SessionID)
	assert.NotEmpty(t, n.EventID)

	_, err = Decode(message(t, contracts.EventAdminProductDeleted, map[string]string{"id": "x"}).Value)
	assert.ErrorIs(t, err, errSkip)

	_, err = Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestConsumer_HandleDedupes(t *testing.T) {
	store := NewMemory()
	c := &Consumer{Store: store}
	msg := message(t, contracts.EventOrderPlaced, placedOrder())

	require.NoError(t, c.Handle(context.Background(), msg))
	require.NoError(t, c.Handle(context.Background(), msg))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, c.Handle(context.Background(), message(t, contracts.EventAdminProductCreated, map[string]string{})))
	assert.Equal(t, 1, store.Len())
}

type fakeReader struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	errs int
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if r.errs > 0 {
		r.errs--
		r.mu.Unlock()
		return kafkago.Message{}, errors.New("broker unavailable")
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func TestConsumer_Run(t *testing.T) {
	store := NewMemory()
	o1, o2 := placedOrder(), placedOrder()
	o2.ID = "second-order"
	reader := &fakeReader{
		errs: 1,
		msgs: []kafkago.Message{
			message(t, contracts.EventOrderPlaced, o1),
			{Value: []byte("garbage")},
			message(t, contracts.EventOrderPlaced, o2),
		},
	}
	c := &Consumer{Reader: reader, Store: store, Backoff: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return store.Len() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
