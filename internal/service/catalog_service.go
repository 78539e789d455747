package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kantin-kiosk/internal/cache"
	"kantin-kiosk/internal/domain"
	"kantin-kiosk/internal/repository"
)

// LowStockThreshold flags products the dashboard should warn about
const LowStockThreshold = 5

var (
	ErrInvalidProduct = errors.New("invalid product")
)

// CatalogService handles product listing and management. Listings go
// through the Redis cache; writes invalidate it.
type CatalogService interface {
	ListProducts(ctx context.Context, availableOnly bool) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context, sellerID *uuid.UUID) ([]*domain.Product, error)
}

type catalogService struct {
	products repository.ProductRepository
	cache    *cache.ProductCache
	logger   *zap.Logger
}

// NewCatalogService creates a CatalogService. cache may be nil, in which
// case every listing hits the store.
func NewCatalogService(products repository.ProductRepository, productCache *cache.ProductCache, logger *zap.Logger) CatalogService {
	return &catalogService{
		products: products,
		cache:    productCache,
		logger:   logger,
	}
}

// ListProducts returns the catalog, filtered to in-stock products for the
// shop view.
func (s *catalogService) ListProducts(ctx context.Context, availableOnly bool) ([]*domain.Product, error) {
	if s.cache != nil {
		if cached := s.cache.GetListing(ctx, availableOnly); cached != nil {
			return cached, nil
		}
	}

	products, err := s.products.List(ctx, availableOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if s.cache != nil {
		s.cache.SetListing(ctx, availableOnly, products)
	}

	return products, nil
}

// GetProduct retrieves one product by id
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// CreateProduct validates and inserts a product, then invalidates the
// listing cache.
func (s *catalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalidProduct)
	}
	if !domain.ValidCategory(p.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, p.Category)
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.products.Create(ctx, p); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateProducts(ctx)
	}

	s.logger.Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("name", p.Name),
		zap.String("seller_id", p.SellerID.String()),
	)
	return nil
}

// DeleteProduct removes a product and invalidates the listing cache
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateProducts(ctx)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// ListLowStock returns products at or below the low-stock threshold,
// scoped to one seller when sellerID is set.
func (s *catalogService) ListLowStock(ctx context.Context, sellerID *uuid.UUID) ([]*domain.Product, error) {
	return s.products.ListLowStock(ctx, LowStockThreshold, sellerID)
}
