package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// CredentialRepository implements credential blob persistence on Postgres
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) ports.CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get retrieves the blob for one (org, integration) pair, nil when absent
func (r *CredentialRepository) Get(ctx context.Context, orgID uint, integration string) (*domain.IntegrationCredential, error) {
	var cred domain.IntegrationCredential
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND integration = ?", orgID, integration).
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &cred, nil
}

// Save creates or replaces the blob for one (org, integration) pair
func (r *CredentialRepository) Save(ctx context.Context, cred *domain.IntegrationCredential) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}, {Name: "integration"}},
		DoUpdates: clause.AssignmentColumns([]string{"blob", "updated_at"}),
	}).Create(cred).Error
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete removes the blob for one (org, integration) pair
func (r *CredentialRepository) Delete(ctx context.Context, orgID uint, integration string) error {
	res := r.db.WithContext(ctx).
		Where("org_id = ? AND integration = ?", orgID, integration).
		Delete(&domain.IntegrationCredential{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete credential: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credential not found")
	}
	return nil
}
