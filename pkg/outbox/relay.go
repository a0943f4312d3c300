package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Store interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

type pgStore struct {
	db DB
}

func NewStore(db DB) Store {
	return pgStore{db: db}
}

func (s pgStore) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	return FetchPending(ctx, s.db, limit)
}

func (s pgStore) MarkSent(ctx context.Context, id int64) error {
	return MarkSent(ctx, s.db, id)
}

// Relay forwards pending outbox rows to the broker in id order. A row that
// fails to send stops the batch so ordering per key is preserved; it is
// retried on the next tick.
type Relay struct {
	Store     Store
	Send      func(ctx context.Context, rec Record) error
	Interval  time.Duration
	BatchSize int
	Logger    *zap.Logger
}

func (r *Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger().Warn("outbox relay batch failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce sends one batch and reports how many rows were marked sent.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	recs, err := r.Store.FetchPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range recs {
		if err := r.Send(ctx, rec); err != nil {
			return sent, err
		}
		if err := r.Store.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		sent++
		r.logger().Debug("outbox record sent",
			zap.Int64("outbox_id", rec.ID),
			zap.String("event_id", rec.EventID),
			zap.String("topic", rec.Topic))
	}
	return sent, nil
}

func (r *Relay) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
