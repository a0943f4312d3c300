package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the outbox needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

const schema = `CREATE TABLE IF NOT EXISTS outbox (
	id         BIGSERIAL PRIMARY KEY,
	event_id   TEXT NOT NULL UNIQUE,
	topic      TEXT NOT NULL,
	key        TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at    TIMESTAMPTZ
)`

func Migrate(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, schema)
	return err
}

// Insert is idempotent on event id.
func Insert(ctx context.Context, db DB, eventID, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO outbox(event_id, topic, key, payload) VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`, eventID, topic, key, data)
	return err
}

func MarkSent(ctx context.Context, db DB, id int64) error {
	_, err := db.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

func FetchPending(ctx context.Context, db DB, limit int) ([]Record, error) {
	rows, err := db.Query(ctx, `SELECT id, event_id, topic, key, payload, created_at, sent_at FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
