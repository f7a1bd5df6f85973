package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/domain/evidence"
	"github.com/qclens/backend/internal/infrastructure/config"
)

// EvidenceCache is implemented by both the Redis and the in-memory cache
type EvidenceCache interface {
	Get(ctx context.Context, key string) ([]evidence.Item, bool, error)
	Set(ctx context.Context, key string, items []evidence.Item, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ EvidenceCache = (*RedisEvidenceCache)(nil)
	_ EvidenceCache = (*InMemoryEvidenceCache)(nil)
)

// EvidenceCacheFactory creates evidence caches based on configuration
type EvidenceCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	cleanupInterval       time.Duration
}

// EvidenceCacheFactoryOption is a functional option for configuring the factory
type EvidenceCacheFactoryOption func(*EvidenceCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) EvidenceCacheFactoryOption {
	return func(f *EvidenceCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) EvidenceCacheFactoryOption {
	return func(f *EvidenceCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithCleanupInterval sets how often the in-memory cache drops expired entries
func WithCleanupInterval(d time.Duration) EvidenceCacheFactoryOption {
	return func(f *EvidenceCacheFactory) {
		f.cleanupInterval = d
	}
}

// NewEvidenceCacheFactory creates a new factory
func NewEvidenceCacheFactory(cfg config.RedisConfig, opts ...EvidenceCacheFactoryOption) *EvidenceCacheFactory {
	f := &EvidenceCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed cache
func (f *EvidenceCacheFactory) CreateRedisCache() (EvidenceCache, error) {
	c, err := NewRedisEvidenceCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis evidence cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates a process-local cache.
// Instances behind a load balancer will not share entries.
func (f *EvidenceCacheFactory) CreateInMemoryCache() EvidenceCache {
	return NewInMemoryEvidenceCache(f.cleanupInterval)
}

// CreateCache returns a Redis cache when Redis is enabled and reachable,
// otherwise an in-memory cache if fallback is allowed
func (f *EvidenceCacheFactory) CreateCache() (EvidenceCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory evidence cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis evidence cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for evidence cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory evidence cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
