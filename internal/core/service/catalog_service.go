package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

type CatalogService struct {
	products port.ProductRepository
	cache    port.CacheRepository
	logger   *zap.Logger
}

func NewCatalogService(products port.ProductRepository, cache port.CacheRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{products: products, cache: cache, logger: logger}
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	now := time.Now()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		UnitPrice:   in.UnitPrice,
		Stock:       in.Stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.mirrorSetStock(ctx, product.ID, product.Stock)

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.UnitPrice = in.UnitPrice
	product.Stock = in.Stock
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.UpdateProduct(ctx, *product); err != nil {
		return nil, err
	}
	s.mirrorSetStock(ctx, product.ID, product.Stock)

	return s.products.GetProduct(ctx, id)
}

// DeactivateProduct soft-deletes a product; historical orders keep their
// price snapshots and references.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id string) error {
	if err := s.products.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deactivated", zap.String("product_id", id))
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *CatalogService) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListActiveProducts(ctx)
}

// ReserveStock decrements stock for the whole item set, all-or-nothing.
func (s *CatalogService) ReserveStock(ctx context.Context, items []domain.StockItem) error {
	if err := validateStockItems(items); err != nil {
		return err
	}
	if err := s.products.ReserveStock(ctx, items); err != nil {
		return err
	}
	s.adjustMirror(ctx, items, -1)
	return nil
}

// RestoreStock increments stock back after a reservation is released.
func (s *CatalogService) RestoreStock(ctx context.Context, items []domain.StockItem) error {
	if err := validateStockItems(items); err != nil {
		return err
	}
	if err := s.products.RestoreStock(ctx, items); err != nil {
		return err
	}
	s.adjustMirror(ctx, items, 1)
	return nil
}

func validateStockItems(items []domain.StockItem) error {
	if len(items) == 0 {
		return domain.Invalid("items", "at least one item is required")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return domain.Invalid("items", "product_id is required")
		}
		if it.Quantity < 1 {
			return domain.Invalid("items", "quantity must be at least 1")
		}
	}
	return nil
}

func (s *CatalogService) mirrorSetStock(ctx context.Context, productID string, stock int) {
	if err := s.cache.SetStock(ctx, productID, stock); err != nil {
		s.logger.Warn("stock mirror write failed", zap.String("product_id", productID), zap.Error(err))
	}
}

func (s *CatalogService) adjustMirror(ctx context.Context, items []domain.StockItem, sign int) {
	for _, it := range items {
		if err := s.cache.AdjustStock(ctx, it.ProductID, sign*it.Quantity); err != nil {
			s.logger.Warn("stock mirror update failed", zap.String("product_id", it.ProductID), zap.Error(err))
		}
	}
}
