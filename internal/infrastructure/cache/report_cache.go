package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ReportCache is a read-through cache for dashboard report aggregates.
// Entries expire quickly; ingestion never invalidates them explicitly.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewReportCache creates a cache against the given Redis address. A nil
// client (empty addr) disables caching.
func NewReportCache(addr string, ttl time.Duration, logger zerolog.Logger) *ReportCache {
	var client *redis.Client
	if addr != "" {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}
	return &ReportCache{client: client, ttl: ttl, logger: logger}
}

// GetOrCompute returns the cached value for key, computing and storing it
// on a miss. Cache failures degrade to computing directly.
func (c *ReportCache) GetOrCompute(ctx context.Context, key string, out any, compute func() (any, error)) error {
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			if jsonErr := json.Unmarshal([]byte(raw), out); jsonErr == nil {
				return nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Report cache read failed")
		}
	}

	value, err := compute()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode report for cache: %w", err)
	}
	if c.client != nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Report cache write failed")
		}
	}
	return json.Unmarshal(encoded, out)
}
