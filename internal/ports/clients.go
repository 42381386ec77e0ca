package ports

import (
	"context"

	shopify "github.com/bold-commerce/go-shopify/v4"

	"merchant-analytics-layer/internal/domain"
)

// TokenProvider yields a valid bearer token, refreshing when needed
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// AdsReportClient defines the async report triad against the Amazon Ads API
type AdsReportClient interface {
	// CreateReport requests an async report for one calendar date and
	// returns the provider-side report id
	CreateReport(ctx context.Context, date string) (string, error)

	// PollReport polls until the report completes, fails, or the iteration
	// budget is exhausted, returning the pre-signed download URL
	PollReport(ctx context.Context, reportID string) (string, error)

	// DownloadReport fetches and decompresses the report payload into raw
	// row records
	DownloadReport(ctx context.Context, url string) ([]map[string]any, error)
}

// SalesTrafficClient defines the async report triad against the SP-API
// Reports API, which separates document retrieval from status polling
type SalesTrafficClient interface {
	CreateReport(ctx context.Context, date string) (string, error)

	// PollReport returns the report document id once processing is done
	PollReport(ctx context.Context, reportID string) (string, error)

	// DownloadDocument resolves the document to a pre-signed URL, downloads
	// and decompresses it, and returns the per-ASIN row records
	DownloadDocument(ctx context.Context, documentID string) ([]map[string]any, error)
}

// ShopifyClient defines the Shopify API surface this system ingests from
type ShopifyClient interface {
	GetOrders(ctx context.Context, options any) ([]shopify.Order, error)

	// Probe makes a lightweight authenticated call to verify credentials
	Probe(ctx context.Context) error
}

// TrafficClient resolves first-party visit attribution for an order
type TrafficClient interface {
	Attribution(ctx context.Context, email string, date string) (*domain.Attribution, error)
}
