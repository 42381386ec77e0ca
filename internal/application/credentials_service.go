package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/ports"
)

// CredentialsService handles integration credential management
type CredentialsService struct {
	credentialRepo ports.CredentialRepository
	encryptionSvc  ports.EncryptionService
	logger         zerolog.Logger
}

// NewCredentialsService creates a new credentials service
func NewCredentialsService(
	credentialRepo ports.CredentialRepository,
	encryptionService ports.EncryptionService,
	logger zerolog.Logger,
) *CredentialsService {
	return &CredentialsService{
		credentialRepo: credentialRepo,
		encryptionSvc:  encryptionService,
		logger:         logger,
	}
}

// SaveCredentials encrypts and stores a credential payload for one
// (org, integration) pair. The payload must be a JSON-encodable struct or
// map matching the integration's expected shape.
func (s *CredentialsService) SaveCredentials(ctx context.Context, orgID uint, integration string, payload any) error {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode credential payload: %w", err)
	}

	encrypted, err := s.encryptionSvc.Encrypt(string(plaintext))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	cred := &domain.IntegrationCredential{
		OrgID:       orgID,
		Integration: integration,
		Blob:        encrypted,
	}
	if err := s.credentialRepo.Save(ctx, cred); err != nil {
		return err
	}

	s.logger.Info().Uint("orgId", orgID).Str("integration", integration).Msg("Credentials saved successfully")
	return nil
}

// fetch retrieves and decrypts one credential blob into out.
func (s *CredentialsService) fetch(ctx context.Context, orgID uint, integration string, out any) error {
	cred, err := s.credentialRepo.Get(ctx, orgID, integration)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("%s not configured for org %d", integration, orgID)
	}

	plaintext, err := s.encryptionSvc.Decrypt(cred.Blob)
	if err != nil {
		return fmt.Errorf("failed to decrypt %s credentials: %w", integration, err)
	}
	return domain.DecodeCredentials(plaintext, out)
}

// GetAmazonAdsCredentials fetches and decrypts the Amazon Ads payload once
// per run; the pipeline carries it by value from there.
func (s *CredentialsService) GetAmazonAdsCredentials(ctx context.Context, orgID uint) (domain.AmazonAdsCredentials, error) {
	var creds domain.AmazonAdsCredentials
	err := s.fetch(ctx, orgID, domain.IntegrationAmazonAds, &creds)
	return creds, err
}

// GetSPAPICredentials fetches and decrypts the SP-API payload.
func (s *CredentialsService) GetSPAPICredentials(ctx context.Context, orgID uint) (domain.SPAPICredentials, error) {
	var creds domain.SPAPICredentials
	err := s.fetch(ctx, orgID, domain.IntegrationAmazonSPAPI, &creds)
	return creds, err
}

// GetShopifyCredentials fetches and decrypts the Shopify payload.
func (s *CredentialsService) GetShopifyCredentials(ctx context.Context, orgID uint) (domain.ShopifyCredentials, error) {
	var creds domain.ShopifyCredentials
	err := s.fetch(ctx, orgID, domain.IntegrationShopify, &creds)
	return creds, err
}

// GetPostHogCredentials fetches and decrypts the PostHog payload.
func (s *CredentialsService) GetPostHogCredentials(ctx context.Context, orgID uint) (domain.PostHogCredentials, error) {
	var creds domain.PostHogCredentials
	err := s.fetch(ctx, orgID, domain.IntegrationPostHog, &creds)
	return creds, err
}

// DeleteCredentials removes the stored blob for one (org, integration) pair
func (s *CredentialsService) DeleteCredentials(ctx context.Context, orgID uint, integration string) error {
	if err := s.credentialRepo.Delete(ctx, orgID, integration); err != nil {
		s.logger.Error().Err(err).Uint("orgId", orgID).Str("integration", integration).Msg("Failed to delete credentials")
		return err
	}
	s.logger.Info().Uint("orgId", orgID).Str("integration", integration).Msg("Credentials deleted successfully")
	return nil
}
