package evidence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/telemetry"
)

// Cache stores aggregated evidence by identity key
type Cache interface {
	Get(ctx context.Context, key string) ([]evidence.Item, bool, error)
	Set(ctx context.Context, key string, items []evidence.Item, ttl time.Duration) error
}

// CachingCollector serves repeated lookups from a Cache.
// Placeholder and empty results are never stored, and cache failures fall
// through to the wrapped collector.
type CachingCollector struct {
	next    Collector
	cache   Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewCachingCollector wraps next with cache
func NewCachingCollector(next Collector, cache Cache, ttl time.Duration, logger *zap.Logger, metrics *telemetry.Metrics) *CachingCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingCollector{next: next, cache: cache, ttl: ttl, logger: logger, metrics: metrics}
}

// CacheKey returns the cache key for an identity
func CacheKey(id listing.Identity) string {
	return "evidence:" + id.Key()
}

// Collect implements Collector
func (c *CachingCollector) Collect(ctx context.Context, id listing.Identity) Result {
	key := CacheKey(id)

	items, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.RecordCacheLookup("error")
		c.logger.Warn("Evidence cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		c.metrics.RecordCacheLookup("hit")
		return Result{Identity: id, Items: items, Cached: true}
	default:
		c.metrics.RecordCacheLookup("miss")
	}

	result := c.next.Collect(ctx, id)
	if result.Placeholder || len(result.Items) == 0 {
		return result
	}
	if err := c.cache.Set(ctx, key, result.Items, c.ttl); err != nil {
		c.logger.Warn("Evidence cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result
}

// Aggregate returns only the items
func (c *CachingCollector) Aggregate(ctx context.Context, id listing.Identity) []evidence.Item {
	return c.Collect(ctx, id).Items
}

var _ Collector = (*CachingCollector)(nil)
