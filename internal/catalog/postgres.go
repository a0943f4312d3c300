package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var ErrAlreadyExists = errors.New("product already exists")

// DB is the part of *pgxpool.Pool the catalog uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `CREATE TABLE IF NOT EXISTS products (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	manufacturer          TEXT NOT NULL DEFAULT '',
	category              TEXT NOT NULL DEFAULT '',
	strength              TEXT NOT NULL DEFAULT '',
	form                  TEXT NOT NULL DEFAULT '',
	price_cents           BIGINT NOT NULL CHECK (price_cents >= 0),
	original_price_cents  BIGINT NOT NULL DEFAULT 0,
	prescription_required BOOLEAN NOT NULL DEFAULT FALSE,
	stock_quantity        INTEGER NOT NULL DEFAULT 0,
	image_url             TEXT NOT NULL DEFAULT '',
	rating                DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const productColumns = `id, name, description, manufacturer, category, strength, form,
	price_cents, original_price_cents, prescription_required, stock_quantity, image_url, rating`

// Postgres serves the catalog from the products table. Prices are stored in
// cents.
type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

// Seed inserts products that are not present yet and reports how many were
// added.
func (s *Postgres) Seed(ctx context.Context, products []Product) (int, error) {
	added := 0
	for _, p := range products {
		tag, err := s.db.Exec(ctx, `INSERT INTO products(`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO NOTHING`, productArgs(p)...)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", p.ID, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func (s *Postgres) ListProducts(ctx context.Context, f Filters) (Page, error) {
	f = f.Normalize()
	where, args := buildWhere(f)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}

	args = append(args, f.PageSize, f.Offset())
	sql := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy(f.Sort), len(args)-1, len(args))
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	page := Page{
		Products:   []Product{},
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages(total, f.PageSize),
	}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return Page{}, err
		}
		page.Products = append(page.Products, p)
	}
	return page, rows.Err()
}

func (s *Postgres) GetProduct(ctx context.Context, id string) (Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *Postgres) CreateProduct(ctx context.Context, p Product) error {
	_, err := s.db.Exec(ctx, `INSERT INTO products(`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, productArgs(p)...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", p.ID, ErrAlreadyExists)
	}
	return err
}

func (s *Postgres) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := s.db.Exec(ctx, `UPDATE products SET
			name=$2, description=$3, manufacturer=$4, category=$5, strength=$6, form=$7,
			price_cents=$8, original_price_cents=$9, prescription_required=$10,
			stock_quantity=$11, image_url=$12, rating=$13, updated_at=now()
		WHERE id=$1`, productArgs(p)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *Postgres) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func buildWhere(f Filters) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("lower(category) = lower($%d)", f.Category)
	}
	if f.Search != "" {
		add("(name || ' ' || manufacturer || ' ' || description) ILIKE $%d", "%"+escapeLike(f.Search)+"%")
	}
	if f.Prescription != nil {
		add("prescription_required = $%d", *f.Prescription)
	}
	if f.MinPrice != nil {
		add("price_cents >= $%d", toCents(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		add("price_cents <= $%d", toCents(*f.MaxPrice))
	}
	if f.InStockOnly {
		conds = append(conds, "stock_quantity > 0")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(s Sort) string {
	switch s {
	case SortPriceAsc:
		return "price_cents ASC, id"
	case SortPriceDesc:
		return "price_cents DESC, id"
	case SortRating:
		return "rating DESC, id"
	default:
		return "lower(name) ASC, id"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toCents(v decimal.Decimal) int64 {
	return v.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func productArgs(p Product) []any {
	return []any{
		p.ID, p.Name, p.Description, p.Manufacturer, p.Category, p.Strength, p.Form,
		toCents(p.Price), toCents(p.OriginalPrice), p.PrescriptionRequired,
		p.StockQuantity, p.ImageURL, p.Rating,
	}
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var price, original int64
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Manufacturer, &p.Category, &p.Strength, &p.Form,
		&price, &original, &p.PrescriptionRequired, &p.StockQuantity, &p.ImageURL, &p.Rating)
	if err != nil {
		return Product{}, err
	}
	p.Price = fromCents(price)
	p.OriginalPrice = fromCents(original)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
