package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/kafka"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/outbox"
)

type Publisher interface {
	Publish(ctx context.Context, e contracts.Event) error
}

// Log only records the event. It is the default when no broker is set up.
type Log struct {
	Logger *zap.Logger
}

func (p Log) Publish(ctx context.Context, e contracts.Event) error {
	p.Logger.Info("event",
		zap.String("type", e.Type),
		zap.String("event_id", e.EventID),
		zap.String("order_id", e.OrderID),
		zap.ByteString("payload", e.Payload))
	return nil
}

// Kafka writes the event straight to the topic its writer is bound to.
type Kafka struct {
	Writer kafka.MessageWriter
}

func (p Kafka) Publish(ctx context.Context, e contracts.Event) error {
	return kafka.PublishJSON(ctx, p.Writer, e.Key(), e)
}

// Outbox stores the event for the relay to forward later.
type Outbox struct {
	DB    outbox.DB
	Topic string
}

func (p Outbox) Publish(ctx context.Context, e contracts.Event) error {
	return outbox.Insert(ctx, p.DB, e.EventID, p.Topic, e.Key(), e)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []contracts.Event
	Err    error
}

func (r *Recorder) Publish(ctx context.Context, e contracts.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []contracts.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contracts.Event(nil), r.events...)
}
