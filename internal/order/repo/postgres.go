package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/outbox"
)

// DB is the part of *pgxpool.Pool the order repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		status           TEXT NOT NULL,
		coupon_code      TEXT NOT NULL DEFAULT '',
		subtotal_cents   BIGINT NOT NULL,
		tax_cents        BIGINT NOT NULL,
		shipping_cents   BIGINT NOT NULL,
		discount_cents   BIGINT NOT NULL,
		total_cents      BIGINT NOT NULL,
		shipping_address JSONB NOT NULL,
		idempotency_key  TEXT,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_session_idempotency
		ON orders(session_id, idempotency_key) WHERE idempotency_key IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS orders_session_created ON orders(session_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id          TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		line              INT NOT NULL,
		product_id        TEXT NOT NULL,
		name              TEXT NOT NULL,
		unit_price_cents  BIGINT NOT NULL,
		quantity          INT NOT NULL,
		prescription_file TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, line)
	)`,
}

const orderColumns = `id, session_id, status, coupon_code, subtotal_cents, tax_cents, shipping_cents,
	discount_cents, total_cents, shipping_address, COALESCE(idempotency_key, ''), created_at`

var errNoOutbox = errors.New("order events need an outbox topic")

type Postgres struct {
	db          DB
	outboxTopic string
}

type PostgresOption func(*Postgres)

// WithOutbox makes Save write order events to the outbox table under topic,
// in the same transaction as the order.
func WithOutbox(topic string) PostgresOption {
	return func(s *Postgres) { s.outboxTopic = topic }
}

func NewPostgres(db DB, opts ...PostgresOption) *Postgres {
	s := &Postgres{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate orders: %w", err)
		}
	}
	return nil
}

// Save writes the order, its lines and its outbox events in one transaction.
func (s *Postgres) Save(ctx context.Context, o domain.Order, events ...contracts.Event) error {
	if len(events) > 0 && s.outboxTopic == "" {
		return errNoOutbox
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var idemKey *string
	if o.IdempotencyKey != "" {
		idemKey = &o.IdempotencyKey
	}
	_, err = tx.Exec(ctx, `INSERT INTO orders(id, session_id, status, coupon_code, subtotal_cents, tax_cents,
			shipping_cents, discount_cents, total_cents, shipping_address, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.SessionID, string(o.Status), o.CouponCode,
		toCents(o.Totals.Subtotal), toCents(o.Totals.Tax), toCents(o.Totals.Shipping),
		toCents(o.Totals.Discount), toCents(o.Totals.Total),
		addr, idemKey, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && idemKey != nil {
			return domain.ErrIdempotencyRace
		}
		return err
	}

	for i, it := range o.Items {
		_, err = tx.Exec(ctx, `INSERT INTO order_items(order_id, line, product_id, name, unit_price_cents, quantity, prescription_file)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, i, it.ProductID, it.Name, toCents(it.UnitPrice), it.Quantity, it.PrescriptionFile,
		)
		if err != nil {
			return err
		}
	}

	for _, e := range events {
		if err := outbox.Insert(ctx, tx, e.EventID, s.outboxTopic, e.Key(), e); err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Postgres) List(ctx context.Context, sessionID string) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id=$1 ORDER BY created_at DESC, id`, sessionID)
	if err != nil {
		return nil, err
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = s.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Postgres) Get(ctx context.Context, sessionID, id string) (domain.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id=$1 AND id=$2`, sessionID, id)
	return s.withItems(ctx, row)
}

func (s *Postgres) FindByIdempotencyKey(ctx context.Context, sessionID, key string) (domain.Order, bool, error) {
	if key == "" {
		return domain.Order{}, false, nil
	}
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id=$1 AND idempotency_key=$2`, sessionID, key)
	o, err := s.withItems(ctx, row)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func (s *Postgres) withItems(ctx context.Context, row pgx.Row) (domain.Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Items, err = s.items(ctx, o.ID)
	return o, err
}

func (s *Postgres) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.db.Query(ctx, `SELECT product_id, name, unit_price_cents, quantity, prescription_file
		FROM order_items WHERE order_id=$1 ORDER BY line`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		var price int64
		err := row.Scan(&it.ProductID, &it.Name, &price, &it.Quantity, &it.PrescriptionFile)
		it.UnitPrice = fromCents(price)
		return it, err
	})
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	var subtotal, tax, shipping, discount, total int64
	var addr []byte
	err := row.Scan(&o.ID, &o.SessionID, &status, &o.CouponCode, &subtotal, &tax, &shipping,
		&discount, &total, &addr, &o.IdempotencyKey, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.Totals.Subtotal = fromCents(subtotal)
	o.Totals.Tax = fromCents(tax)
	o.Totals.Shipping = fromCents(shipping)
	o.Totals.Discount = fromCents(discount)
	o.Totals.Total = fromCents(total)
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	return o, nil
}

func toCents(v decimal.Decimal) int64 {
	return v.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
