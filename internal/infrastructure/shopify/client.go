package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/domain"
	"merchant-analytics-layer/internal/infrastructure/metrics"
	"merchant-analytics-layer/internal/infrastructure/retry"
	"merchant-analytics-layer/internal/ports"
)

type client struct {
	shopDomain  string
	accessToken string
	rateLimited retry.Policy
	logger      zerolog.Logger
}

// NewClient creates a Shopify client adapter scoped to one store's
// credentials. Rate-limited calls retry with linear backoff, matching
// Shopify's leaky-bucket limits.
func NewClient(creds domain.ShopifyCredentials, logger zerolog.Logger) ports.ShopifyClient {
	return &client{
		shopDomain:  creds.StoreDomain,
		accessToken: creds.AdminToken,
		rateLimited: retry.Policy{
			MaxAttempts: 5,
			Backoff:     retry.Linear(2 * time.Second),
			Retryable:   isRateLimited,
		},
		logger: logger,
	}
}

func isRateLimited(err error) bool {
	var rl goshopify.RateLimitError
	limited := errors.As(err, &rl) || strings.Contains(err.Error(), "429")
	if limited {
		metrics.RateLimited.WithLabelValues("shopify").Inc()
	}
	return limited
}

// createClient is a helper to create a goshopify client
func (c *client) createClient() (*goshopify.Client, error) {
	gc, err := goshopify.NewClient(goshopify.App{}, c.shopDomain, c.accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return gc, nil
}

func (c *client) Probe(ctx context.Context) error {
	gc, err := c.createClient()
	if err != nil {
		return err
	}
	if _, err := gc.Shop.Get(ctx, nil); err != nil {
		return fmt.Errorf("failed initial auth probe for %s: %w", c.shopDomain, err)
	}
	return nil
}

func (c *client) GetOrders(ctx context.Context, options any) ([]goshopify.Order, error) {
	gc, err := c.createClient()
	if err != nil {
		return nil, err
	}
	var orders []goshopify.Order
	err = c.rateLimited.Do(ctx, func() error {
		var listErr error
		orders, listErr = gc.Order.List(ctx, options)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
