package notify

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Memory struct {
	mu   sync.Mutex
	seen map[string]Notification
}

func NewMemory() *Memory {
	return &Memory{seen: map[string]Notification{}}
}

func (m *Memory) Save(ctx context.Context, n Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[n.EventID]; ok {
		return false, nil
	}
	m.seen[n.EventID] = n
	return true, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// DB is the part of *pgxpool.Pool the notification store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS inbox (
		event_id    TEXT PRIMARY KEY,
		received_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		event_id   TEXT PRIMARY KEY REFERENCES inbox(event_id),
		order_id   TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		subject    TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// Postgres dedupes through the inbox table and keeps the rendered text.
type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Postgres) Save(ctx context.Context, n Notification) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `INSERT INTO inbox(event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING`, n.EventID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	_, err = tx.Exec(ctx, `INSERT INTO notifications(event_id, order_id, session_id, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, n.EventID, n.OrderID, n.SessionID, n.Subject, n.Body, n.CreatedAt)
	if err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
