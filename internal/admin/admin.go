package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/events"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/contracts"
)

var ErrInvalidProduct = errors.New("invalid product")

type Catalog interface {
	catalog.Provider
	catalog.Writer
}

// Service is the back-office side of the catalog. Every successful mutation
// is logged and announced as an admin.* event.
type Service struct {
	catalog   Catalog
	publisher events.Publisher
	logger    *zap.Logger
}

func New(c Catalog, publisher events.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: c, publisher: publisher, logger: logger}
}

func (s *Service) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p = normalize(p)
	if p.ID == "" {
		p.ID = "prod-" + uuid.NewString()
	}
	if err := Validate(p); err != nil {
		return catalog.Product{}, err
	}
	if err := s.catalog.CreateProduct(ctx, p); err != nil {
		return catalog.Product{}, err
	}
	s.announce(ctx, contracts.EventAdminProductCreated, p.ID, p)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, p catalog.Product) (catalog.Product, error) {
	p = normalize(p)
	p.ID = id
	if err := Validate(p); err != nil {
		return catalog.Product{}, err
	}
	if err := s.catalog.UpdateProduct(ctx, p); err != nil {
		return catalog.Product{}, err
	}
	s.announce(ctx, contracts.EventAdminProductUpdated, p.ID, p)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.announce(ctx, contracts.EventAdminProductDeleted, id, map[string]string{"id": id})
	return nil
}

func (s *Service) announce(ctx context.Context, eventType, productID string, payload any) {
	s.logger.Info("catalog changed", zap.String("event", eventType), zap.String("product_id", productID))

	e, err := contracts.NewEvent(eventType, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.logger.Warn("publish admin event failed",
			zap.String("event", eventType), zap.String("product_id", productID), zap.Error(err))
	}
}

func normalize(p catalog.Product) catalog.Product {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	p.Manufacturer = strings.TrimSpace(p.Manufacturer)
	if p.OriginalPrice.IsZero() {
		p.OriginalPrice = p.Price
	}
	return p
}

// Validate reports every problem with p at once.
func Validate(p catalog.Product) error {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Category == "" {
		problems = append(problems, "category is required")
	}
	if !p.Price.IsPositive() {
		problems = append(problems, "price must be positive")
	}
	if p.OriginalPrice.LessThan(p.Price) {
		problems = append(problems, "original_price must not be below price")
	}
	if p.StockQuantity < 0 {
		problems = append(problems, "stock_quantity must not be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
	}
	return nil
}
