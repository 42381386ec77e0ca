package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// ProductRepository implements product persistence on Postgres
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ports.ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product; (org, SKU) must not already exist
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update saves edited product fields
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("org_id = ? AND sku = ?", product.OrgID, product.SKU).
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// Delete removes a product by (org, SKU)
func (r *ProductRepository) Delete(ctx context.Context, orgID uint, sku string) error {
	res := r.db.WithContext(ctx).
		Where("org_id = ? AND sku = ?", orgID, sku).
		Delete(&domain.Product{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// GetBySKU retrieves one product, nil when absent
func (r *ProductRepository) GetBySKU(ctx context.Context, orgID uint, sku string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND sku = ?", orgID, sku).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// List returns all products for an org
func (r *ProductRepository) List(ctx context.Context, orgID uint) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("sku asc").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
