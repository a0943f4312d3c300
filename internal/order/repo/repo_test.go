package repo

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/outbox"
)

func sampleOrder(sessionID, key string, at time.Time) domain.Order {
	return domain.Order{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Status:    domain.OrderStatusPlaced,
		Items: []domain.OrderItem{
			{ProductID: "prod-ibuprofen-200", Name: "Ibuprofen", UnitPrice: decimal.RequireFromString("12.99"), Quantity: 2},
			{ProductID: "prod-amoxicillin-500", Name: "Amoxicillin", UnitPrice: decimal.RequireFromString("15.00"), Quantity: 1, PrescriptionFile: "rx.pdf"},
		},
		Totals: cart.Totals{
			Subtotal: decimal.RequireFromString("40.98"),
			Tax:      decimal.RequireFromString("3.28"),
			Shipping: decimal.RequireFromString("5.99"),
			Discount: decimal.Zero,
			Total:    decimal.RequireFromString("50.25"),
		},
		ShippingAddress: domain.Address{Name: "Asha", Line1: "1 MG Road", City: "Pune", PostalCode: "411001"},
		IdempotencyKey:  key,
		CreatedAt:       at.UTC().Truncate(time.Microsecond),
	}
}

// exerciseRepository checks the behaviour every Repository shares.
func exerciseRepository(t *testing.T, r domain.Repository) {
	ctx := context.Background()
	session := uuid.NewString()
	base := time.Now()

	first := sampleOrder(session, "key-1", base)
	second := sampleOrder(session, "", base.Add(time.Minute))
	require.NoError(t, r.Save(ctx, first))
	require.NoError(t, r.Save(ctx, second))
	require.NoError(t, r.Save(ctx, sampleOrder(uuid.NewString(), "key-1", base)), "keys are scoped per session")

	err := r.Save(ctx, sampleOrder(session, "key-1", base))
	assert.ErrorIs(t, err, domain.ErrIdempotencyRace)

	list, err := r.List(ctx, session)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	got, err := r.Get(ctx, session, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "25.98", got.Items[0].LineTotal().StringFixed(2))
	assert.Equal(t, "rx.pdf", got.Items[1].PrescriptionFile)
	assert.Equal(t, "50.25", got.Totals.Total.StringFixed(2))
	assert.Equal(t, first.ShippingAddress, got.ShippingAddress)

	_, err = r.Get(ctx, uuid.NewString(), first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "orders are not visible to other sessions")

	found, ok, err := r.FindByIdempotencyKey(ctx, session, "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, found.ID)

	_, ok, err = r.FindByIdempotencyKey(ctx, session, "")
	require.NoError(t, err)
	assert.False(t, ok)

	empty, err := r.List(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func placedEvent(t *testing.T, o domain.Order) contracts.Event {
	t.Helper()
	e, err := contracts.NewEvent(contracts.EventOrderPlaced, o)
	require.NoError(t, err)
	e.OrderID = o.ID
	return e
}

func TestMemory_EventsOnlyKeptWithTheirOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	first := sampleOrder("s1", "key-1", time.Now())
	require.NoError(t, m.Save(ctx, first, placedEvent(t, first)))

	dup := sampleOrder("s1", "key-1", time.Now())
	require.ErrorIs(t, m.Save(ctx, dup, placedEvent(t, dup)), domain.ErrIdempotencyRace)

	events := m.Events()
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].OrderID)
}

// fakeTx records statements; the embedded interface is never called.
type fakeTx struct {
	pgx.Tx
	stmts     []string
	failOn    string
	committed bool
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.stmts = append(tx.stmts, sql)
	if tx.failOn != "" && strings.Contains(sql, tx.failOn) {
		return pgconn.CommandTag{}, errors.New("write failed")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct {
	tx    *fakeTx
	begun int
}

func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not used")
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.begun++
	return d.tx, nil
}

func TestPostgres_SaveWritesOutboxInOrderTransaction(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{}}
	o := sampleOrder("s1", "", time.Now())

	require.NoError(t, NewPostgres(db, WithOutbox("pharmacy.orders")).Save(context.Background(), o, placedEvent(t, o)))

	stmts := db.tx.stmts
	require.Len(t, stmts, 4, "order, two lines, one outbox row")
	assert.Contains(t, stmts[0], "INSERT INTO orders")
	assert.Contains(t, stmts[3], "INSERT INTO outbox")
	assert.True(t, db.tx.committed)
}

func TestPostgres_OutboxFailureAbortsOrder(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{failOn: "INSERT INTO outbox"}}
	o := sampleOrder("s1", "", time.Now())

	err := NewPostgres(db, WithOutbox("pharmacy.orders")).Save(context.Background(), o, placedEvent(t, o))
	require.ErrorContains(t, err, "write outbox")
	assert.False(t, db.tx.committed)
}

func TestPostgres_EventsNeedOutboxTopic(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{}}
	o := sampleOrder("s1", "", time.Now())

	err := NewPostgres(db).Save(context.Background(), o, placedEvent(t, o))
	require.ErrorIs(t, err, errNoOutbox)
	assert.Zero(t, db.begun)
}

// Runs against a real database when ORDERS_TEST_DATABASE_URL is set.
func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("ORDERS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ORDERS_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS order_items`)
	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS orders`)
	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS outbox`)
	store := NewPostgres(pool, WithOutbox("pharmacy.orders"))
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations are repeatable")
	require.NoError(t, outbox.Migrate(ctx, pool))

	exerciseRepository(t, store)

	o := sampleOrder(uuid.NewString(), "", time.Now())
	e := placedEvent(t, o)
	require.NoError(t, store.Save(ctx, o, e))
	pending, err := outbox.FetchPending(ctx, pool, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, e.EventID, pending[0].EventID)
	assert.Equal(t, o.ID, pending[0].Key)
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(3405), toCents(decimal.RequireFromString("34.05")))
	assert.Equal(t, "0.63", fromCents(63).StringFixed(2))
}
