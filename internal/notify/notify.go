package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/kafka"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/logging"
)

var errSkip = errors.New("not an order confirmation")

type Notification struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	SessionID string    `json:"session_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Render builds the confirmation a shopper receives for a placed order.
func Render(o domain.Order) (subject, body string) {
	short := o.ID
	if len(short) > 8 {
		short = short[:8]
	}
	subject = fmt.Sprintf("Your pharmacy order %s is confirmed", short)

	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s,\n\nThanks for your order. Here is what we received:\n\n", o.ShippingAddress.Name)
	for _, it := range o.Items {
		fmt.Fprintf(b, "  %d x %s  $%s\n", it.Quantity, it.Name, it.LineTotal().StringFixed(2))
		if it.PrescriptionFile != "" {
			fmt.Fprintf(b, "      prescription: %s\n", it.PrescriptionFile)
		}
	}
	fmt.Fprintf(b, "\nSubtotal  $%s\n", o.Totals.Subtotal.StringFixed(2))
	fmt.Fprintf(b, "Tax       $%s\n", o.Totals.Tax.StringFixed(2))
	if o.Totals.Shipping.IsZero() {
		fmt.Fprintln(b, "Shipping  FREE")
	} else {
		fmt.Fprintf(b, "Shipping  $%s\n", o.Totals.Shipping.StringFixed(2))
	}
	if !o.Totals.Discount.IsZero() {
		fmt.Fprintf(b, "Discount -$%s (%s)\n", o.Totals.Discount.StringFixed(2), o.CouponCode)
	}
	fmt.Fprintf(b, "Total     $%s\n", o.Totals.Total.StringFixed(2))

	a := o.ShippingAddress
	fmt.Fprintf(b, "\nShipping to:\n  %s\n  %s\n", a.Name, a.Line1)
	if a.Line2 != "" {
		fmt.Fprintf(b, "  %s\n", a.Line2)
	}
	fmt.Fprintf(b, "  %s %s %s\n", a.City, a.State, a.PostalCode)
	return subject, b.String()
}

// Decode turns a broker message into a notification. Events other than
// order.placed yield errSkip.
func Decode(value []byte) (Notification, error) {
	var evt contracts.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		return Notification{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.EventID == "" || evt.Type != contracts.EventOrderPlaced {
		return Notification{}, errSkip
	}
	var o domain.Order
	if err := evt.DecodePayload(&o); err != nil {
		return Notification{}, err
	}
	subject, body := Render(o)
	return Notification{
		EventID:   evt.EventID,
		OrderID:   o.ID,
		SessionID: evt.SessionID,
		Subject:   subject,
		Body:      body,
		CreatedAt: evt.CreatedAt,
	}, nil
}

// Store persists notifications at most once per event id. Save reports
// whether the notification was new.
type Store interface {
	Save(ctx context.Context, n Notification) (bool, error)
}

type Consumer struct {
	Reader  kafka.MessageReader
	Store   Store
	Logger  *zap.Logger
	Backoff time.Duration
}

// Handle processes one message. Redelivered events are ignored.
func (c *Consumer) Handle(ctx context.Context, msg kafkago.Message) error {
	n, err := Decode(msg.Value)
	if errors.Is(err, errSkip) {
		return nil
	}
	if err != nil {
		return err
	}
	fresh, err := c.Store.Save(ctx, n)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	status := "duplicate"
	if fresh {
		status = "sent"
		c.logger().Info("order confirmation",
			zap.String("order_id", n.OrderID),
			zap.String("subject", n.Subject),
			zap.String("body", n.Body))
	}
	logging.Log(c.logger(), "notification", logging.Fields{
		SessionID: n.SessionID,
		OrderID:   n.OrderID,
		EventID:   n.EventID,
		Step:      contracts.EventOrderPlaced,
		Status:    status,
	})
	return nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger().Warn("kafka read error", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		if err := c.Handle(ctx, msg); err != nil {
			c.logger().Warn("notification failed",
				zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
