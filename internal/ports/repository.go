package ports

import (
	"context"
	"time"

	"merchant-analytics-layer/internal/domain"
)

// CredentialRepository defines the interface for credential blob persistence
type CredentialRepository interface {
	// Get retrieves the encrypted blob for one (org, integration) pair,
	// or nil when none is stored
	Get(ctx context.Context, orgID uint, integration string) (*domain.IntegrationCredential, error)

	// Save creates or replaces the blob for one (org, integration) pair
	Save(ctx context.Context, cred *domain.IntegrationCredential) error

	// Delete removes the blob for one (org, integration) pair
	Delete(ctx context.Context, orgID uint, integration string) error
}

// MetricRepository defines the interface for metric row persistence
type MetricRepository interface {
	UpsertCampaignMetric(ctx context.Context, row *domain.CampaignMetric) error
	UpsertSalesTrafficMetric(ctx context.Context, row *domain.SalesTrafficMetric) error

	// DistinctCampaignDates returns the dates already ingested for an org
	// and source, used by the backfill skip-existing logic
	DistinctCampaignDates(ctx context.Context, orgID uint, source string) ([]string, error)
	DistinctSalesTrafficDates(ctx context.Context, orgID uint) ([]string, error)

	CampaignMetricsByRange(ctx context.Context, orgID uint, start, end string) ([]*domain.CampaignMetric, error)
	SalesTrafficByRange(ctx context.Context, orgID uint, start, end string) ([]*domain.SalesTrafficMetric, error)
}

// PendingReportRepository persists async report jobs across process restarts
type PendingReportRepository interface {
	Save(ctx context.Context, report *domain.PendingReport) error
	ListPending(ctx context.Context, orgID uint) ([]*domain.PendingReport, error)
	MarkStatus(ctx context.Context, id uint, status string) error

	// DeleteOlderThan removes stale rows regardless of status
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, orgID uint, sku string) error
	GetBySKU(ctx context.Context, orgID uint, sku string) (*domain.Product, error)
	List(ctx context.Context, orgID uint) ([]*domain.Product, error)
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Upsert(ctx context.Context, order *domain.Order) error
	GetByShopifyID(ctx context.Context, orgID uint, shopifyOrderID int64) (*domain.Order, error)
	List(ctx context.Context, orgID uint, start, end string) ([]*domain.Order, error)

	// ExistingShopifyIDs returns which of the given order ids are already
	// stored for the org
	ExistingShopifyIDs(ctx context.Context, orgID uint, ids []int64) (map[int64]bool, error)

	// HasPriorOrder reports whether the org has an order for the email
	// before the given date
	HasPriorOrder(ctx context.Context, orgID uint, email string, before string) (bool, error)
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	UpsertByEmail(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	List(ctx context.Context, orgID uint) ([]*domain.Customer, error)
}
