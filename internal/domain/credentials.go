package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Integration names stored alongside credential blobs.
const (
	IntegrationAmazonAds   = "amazon-ads"
	IntegrationAmazonSPAPI = "amazon-sp-api"
	IntegrationShopify     = "shopify"
	IntegrationPostHog     = "posthog"
)

// IntegrationCredential is one encrypted credential blob per (org, integration).
// The blob decrypts to a JSON object whose shape depends on the integration.
type IntegrationCredential struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrgID       uint      `json:"org_id" gorm:"uniqueIndex:idx_credential_org_integration;not null"`
	Integration string    `json:"integration" gorm:"uniqueIndex:idx_credential_org_integration;size:64;not null"`
	Blob        string    `json:"-" gorm:"type:text;not null"` // encrypted JSON, never exposed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AmazonAdsCredentials is the decrypted payload for the Amazon Ads integration.
type AmazonAdsCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	ProfileID    string `json:"profile_id"`
}

// SPAPICredentials is the decrypted payload for the Amazon SP-API integration.
type SPAPICredentials struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	RefreshToken  string `json:"refresh_token"`
	MarketplaceID string `json:"marketplace_id"`
	Endpoint      string `json:"endpoint"` // e.g. https://sellingpartnerapi-eu.amazon.com
}

// ShopifyCredentials is the decrypted payload for the Shopify integration.
type ShopifyCredentials struct {
	StoreDomain string `json:"store_domain"`
	AdminToken  string `json:"admin_token"`
}

// PostHogCredentials is the decrypted payload for the PostHog integration.
type PostHogCredentials struct {
	Host      string `json:"host"`
	ProjectID string `json:"project_id"`
	APIKey    string `json:"api_key"`
}

// DecodeCredentials unmarshals a decrypted blob into the given typed payload.
func DecodeCredentials(plaintext string, out any) error {
	if err := json.Unmarshal([]byte(plaintext), out); err != nil {
		return fmt.Errorf("failed to decode credential payload: %w", err)
	}
	return nil
}
