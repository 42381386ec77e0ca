package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// MetricRepository implements metric row persistence on Postgres
type MetricRepository struct {
	db *gorm.DB
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *gorm.DB) ports.MetricRepository {
	return &MetricRepository{db: db}
}

// UpsertCampaignMetric writes one campaign row, overwriting all metric
// columns on conflict with the composite key
func (r *MetricRepository) UpsertCampaignMetric(ctx context.Context, row *domain.CampaignMetric) error {
	err := r.db.WithContext(ctx).Clauses(campaignMetricPolicy.OnConflict()).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert campaign metric: %w", err)
	}
	return nil
}

// UpsertSalesTrafficMetric writes one sales & traffic row
func (r *MetricRepository) UpsertSalesTrafficMetric(ctx context.Context, row *domain.SalesTrafficMetric) error {
	err := r.db.WithContext(ctx).Clauses(salesTrafficPolicy.OnConflict()).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert sales traffic metric: %w", err)
	}
	return nil
}

// DistinctCampaignDates returns the dates already ingested for an org/source
func (r *MetricRepository) DistinctCampaignDates(ctx context.Context, orgID uint, source string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&domain.CampaignMetric{}).
		Where("org_id = ? AND source = ?", orgID, source).
		Distinct("date").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign dates: %w", err)
	}
	return dates, nil
}

// DistinctSalesTrafficDates returns the dates already ingested for an org
func (r *MetricRepository) DistinctSalesTrafficDates(ctx context.Context, orgID uint) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&domain.SalesTrafficMetric{}).
		Where("org_id = ?", orgID).
		Distinct("date").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales traffic dates: %w", err)
	}
	return dates, nil
}

// CampaignMetricsByRange lists campaign rows for a date range, oldest first
func (r *MetricRepository) CampaignMetricsByRange(ctx context.Context, orgID uint, start, end string) ([]*domain.CampaignMetric, error) {
	var rows []*domain.CampaignMetric
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND date >= ? AND date <= ?", orgID, start, end).
		Order("date asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign metrics: %w", err)
	}
	return rows, nil
}

// SalesTrafficByRange lists sales & traffic rows for a date range
func (r *MetricRepository) SalesTrafficByRange(ctx context.Context, orgID uint, start, end string) ([]*domain.SalesTrafficMetric, error) {
	var rows []*domain.SalesTrafficMetric
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND date >= ? AND date <= ?", orgID, start, end).
		Order("date asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales traffic metrics: %w", err)
	}
	return rows, nil
}
