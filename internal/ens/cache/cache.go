// Package cache is the shared record cache in front of the aggregator. A
// cache miss and a cache outage look identical to callers; the aggregator is
// always authoritative.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ensgraph/internal/ens/metrics"
	"ensgraph/internal/ens/models"
)

const keyPrefix = "ens:domain:"

// Store is the subset of the redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache holds aggregated domain records for a fixed TTL. A nil Store makes
// every operation a no-op, so callers never branch on whether caching is
// configured.
type Cache struct {
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{store: store, ttl: ttl, logger: logger, metrics: m}
}

// Get returns the cached record for a normalized name, or nil on miss. Cache
// errors are logged and reported as misses.
func (c *Cache) Get(ctx context.Context, normalized string) *models.DomainDetails {
	if c == nil || c.store == nil {
		return nil
	}

	raw, err := c.store.Get(ctx, keyPrefix+normalized).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "name", normalized, "error", err)
		}
		c.observeMiss()
		return nil
	}

	var details models.DomainDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", "name", normalized, "error", err)
		c.observeMiss()
		return nil
	}

	c.observeHit()
	return &details
}

// Set stores a record under the name's cache key. Failures are logged, never
// returned: a write miss only costs the next reader a lookup.
func (c *Cache) Set(ctx context.Context, normalized string, details *models.DomainDetails) {
	if c == nil || c.store == nil {
		return
	}

	raw, err := json.Marshal(details)
	if err != nil {
		c.logger.Warn("cache encode failed", "name", normalized, "error", err)
		return
	}
	if err := c.store.Set(ctx, keyPrefix+normalized, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "name", normalized, "error", err)
	}
}

func (c *Cache) observeHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) observeMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}

// Key reports the cache key for a normalized name.
func Key(normalized string) string {
	return fmt.Sprintf("%s%s", keyPrefix, normalized)
}
