package catalog

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
)

var ErrNotFound = errors.New("product not found")

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// MaxPage keeps the page offset well inside int32.
	MaxPage = math.MaxInt32 / MaxPageSize
)

type Product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	Manufacturer         string          `json:"manufacturer"`
	Category             string          `json:"category"`
	Strength             string          `json:"strength,omitempty"`
	Form                 string          `json:"form,omitempty"`
	Price                decimal.Decimal `json:"price"`
	OriginalPrice        decimal.Decimal `json:"original_price"`
	PrescriptionRequired bool            `json:"prescription_required"`
	StockQuantity        int             `json:"stock_quantity"`
	ImageURL             string          `json:"image_url,omitempty"`
	Rating               float64         `json:"rating"`
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// ToCartProduct takes the identity and price snapshot the cart keeps.
func ToCartProduct(p Product) cart.Product {
	return cart.Product{
		ID:                   p.ID,
		Name:                 p.Name,
		Manufacturer:         p.Manufacturer,
		Strength:             p.Strength,
		Form:                 p.Form,
		Price:                p.Price,
		OriginalPrice:        p.OriginalPrice,
		PrescriptionRequired: p.PrescriptionRequired,
	}
}

type Sort string

const (
	SortName      Sort = "name"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating"
)

type Filters struct {
	Category string
	Search   string
	// Prescription narrows to Rx-only (true) or OTC-only (false) when set.
	Prescription *bool
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStockOnly  bool
	Sort         Sort
	Page         int
	PageSize     int
}

// Normalize fills defaults and clamps paging.
func (f Filters) Normalize() Filters {
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)
	switch f.Sort {
	case SortName, SortPriceAsc, SortPriceDesc, SortRating:
	default:
		f.Sort = SortName
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the index of the first product on the page. f must be normalized.
func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

func (f Filters) Match(p Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		hay := strings.ToLower(p.Name + " " + p.Manufacturer + " " + p.Description)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	if f.Prescription != nil && p.PrescriptionRequired != *f.Prescription {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.InStockOnly && !p.InStock() {
		return false
	}
	return true
}

type Page struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Provider is the read side of the catalog the storefront depends on.
type Provider interface {
	ListProducts(ctx context.Context, f Filters) (Page, error)
	GetProduct(ctx context.Context, id string) (Product, error)
}

// Writer is used by the admin surface only.
type Writer interface {
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
}

func SortProducts(ps []Product, by Sort) {
	less := func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	switch by {
	case SortPriceAsc:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceDesc:
		less = func(a, b Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b Product) bool { return a.Rating > b.Rating }
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}

// Paginate filters, sorts and slices an in-memory product list.
func Paginate(all []Product, f Filters) Page {
	f = f.Normalize()

	matched := make([]Product, 0, len(all))
	for _, p := range all {
		if f.Match(p) {
			matched = append(matched, p)
		}
	}
	SortProducts(matched, f.Sort)

	page := Page{
		Products:   []Product{},
		Total:      len(matched),
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages(len(matched), f.PageSize),
	}
	start := f.Offset()
	if start >= len(matched) {
		return page
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page.Products = append(page.Products, matched[start:end]...)
	return page
}

func totalPages(total, size int) int {
	return int(math.Ceil(float64(total) / float64(size)))
}
