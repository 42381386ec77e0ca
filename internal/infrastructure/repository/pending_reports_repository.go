package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// PendingReportRepository implements pending report persistence on Postgres
type PendingReportRepository struct {
	db *gorm.DB
}

// NewPendingReportRepository creates a new pending report repository
func NewPendingReportRepository(db *gorm.DB) ports.PendingReportRepository {
	return &PendingReportRepository{db: db}
}

// Save inserts a pending report row
func (r *PendingReportRepository) Save(ctx context.Context, report *domain.PendingReport) error {
	if report.Status == "" {
		report.Status = domain.ReportStatusPending
	}
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to save pending report: %w", err)
	}
	return nil
}

// ListPending returns unresolved reports for an org, oldest first
func (r *PendingReportRepository) ListPending(ctx context.Context, orgID uint) ([]*domain.PendingReport, error) {
	var reports []*domain.PendingReport
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND status = ?", orgID, domain.ReportStatusPending).
		Order("created_at asc").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	return reports, nil
}

// MarkStatus updates one report's status
func (r *PendingReportRepository) MarkStatus(ctx context.Context, id uint, status string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.PendingReport{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to mark pending report: %w", err)
	}
	return nil
}

// DeleteOlderThan removes stale rows regardless of status
func (r *PendingReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.PendingReport{}).Error
	if err != nil {
		return fmt.Errorf("failed to clean up pending reports: %w", err)
	}
	return nil
}
