package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// ProductView is a product plus its computed per-channel economics.
type ProductView struct {
	*domain.Product
	Channels []domain.ChannelProfit `json:"channels"`
}

// ProductService manages the product catalog. Channel profit and margin are
// computed on every read, never persisted.
type ProductService struct {
	productRepo ports.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service
func NewProductService(productRepo ports.ProductRepository, logger zerolog.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, logger: logger}
}

func view(p *domain.Product) *ProductView {
	return &ProductView{Product: p, Channels: p.ChannelProfits()}
}

// CreateProduct stores a new product for the org.
func (s *ProductService) CreateProduct(ctx context.Context, orgID uint, product *domain.Product) (*ProductView, error) {
	product.OrgID = orgID
	product.SKU = strings.TrimSpace(product.SKU)
	if product.SKU == "" {
		return nil, fmt.Errorf("sku is required")
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info().Str("sku", product.SKU).Uint("orgId", orgID).Msg("Created product")
	return view(product), nil
}

// UpdateProduct replaces the editable attributes of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, orgID uint, sku string, update *domain.Product) (*ProductView, error) {
	existing, err := s.productRepo.GetBySKU(ctx, orgID, sku)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("product %s not found", sku)
	}

	update.ID = existing.ID
	update.OrgID = orgID
	update.SKU = existing.SKU
	update.CreatedAt = existing.CreatedAt
	if err := s.productRepo.Update(ctx, update); err != nil {
		return nil, err
	}
	return view(update), nil
}

// DeleteProduct removes a product by SKU.
func (s *ProductService) DeleteProduct(ctx context.Context, orgID uint, sku string) error {
	return s.productRepo.Delete(ctx, orgID, sku)
}

// GetProduct returns one product with computed channel economics, or nil.
func (s *ProductService) GetProduct(ctx context.Context, orgID uint, sku string) (*ProductView, error) {
	product, err := s.productRepo.GetBySKU(ctx, orgID, sku)
	if err != nil || product == nil {
		return nil, err
	}
	return view(product), nil
}

// ListProducts returns the org's catalog with computed channel economics.
func (s *ProductService) ListProducts(ctx context.Context, orgID uint) ([]*ProductView, error) {
	products, err := s.productRepo.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, view(p))
	}
	return views, nil
}
