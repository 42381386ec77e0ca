package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// OrderRepository implements order persistence on Postgres
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) ports.OrderRepository {
	return &OrderRepository{db: db}
}

// Upsert writes one order. On conflict with (org, shopify order id) all
// non-identity columns are overwritten except the protected attribution
// columns. Line items are replaced wholesale.
func (r *OrderRepository) Upsert(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.LineItems
		order.LineItems = nil

		if err := tx.Clauses(orderPolicy.OnConflict()).Create(order).Error; err != nil {
			return fmt.Errorf("failed to upsert order: %w", err)
		}

		// Create with OnConflict leaves order.ID unset on update; resolve it.
		var stored domain.Order
		if err := tx.Select("id").
			Where("org_id = ? AND shopify_order_id = ?", order.OrgID, order.ShopifyOrderID).
			First(&stored).Error; err != nil {
			return fmt.Errorf("failed to resolve upserted order: %w", err)
		}
		order.ID = stored.ID

		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.OrderLineItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to create line items: %w", err)
			}
		}
		order.LineItems = items
		return nil
	})
}

// GetByShopifyID retrieves one order with its line items, nil when absent
func (r *OrderRepository) GetByShopifyID(ctx context.Context, orgID uint, shopifyOrderID int64) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("org_id = ? AND shopify_order_id = ?", orgID, shopifyOrderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// List returns orders in a date range, newest first
func (r *OrderRepository) List(ctx context.Context, orgID uint, start, end string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("org_id = ? AND date >= ? AND date <= ?", orgID, start, end).
		Order("date desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ExistingShopifyIDs returns which of the given ids are already stored
func (r *OrderRepository) ExistingShopifyIDs(ctx context.Context, orgID uint, ids []int64) (map[int64]bool, error) {
	if len(ids) == 0 {
		return map[int64]bool{}, nil
	}
	var found []int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("org_id = ? AND shopify_order_id IN ?", orgID, ids).
		Pluck("shopify_order_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing orders: %w", err)
	}
	existing := make(map[int64]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// HasPriorOrder reports whether the org has an order for the email before
// the given date
func (r *OrderRepository) HasPriorOrder(ctx context.Context, orgID uint, email string, before string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("org_id = ? AND email = ? AND date < ?", orgID, email, before).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check prior orders: %w", err)
	}
	return count > 0, nil
}

// CustomerRepository implements customer persistence on Postgres
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) ports.CustomerRepository {
	return &CustomerRepository{db: db}
}

// UpsertByEmail creates or refreshes the customer row for (org, email) and
// returns the stored row
func (r *CustomerRepository) UpsertByEmail(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	err := r.db.WithContext(ctx).Clauses(customerPolicy.OnConflict()).Create(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}

	var stored domain.Customer
	err = r.db.WithContext(ctx).
		Where("org_id = ? AND email = ?", customer.OrgID, customer.Email).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upserted customer: %w", err)
	}
	return &stored, nil
}

// List returns all customers for an org
func (r *CustomerRepository) List(ctx context.Context, orgID uint) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("email asc").
		Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}
