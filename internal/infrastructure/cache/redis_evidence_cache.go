package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qclens/backend/internal/domain/evidence"
)

const defaultKeyPrefix = "qclens:"

// RedisEvidenceCache stores evidence lists as JSON strings in Redis.
// It is shared by every instance behind a load balancer.
type RedisEvidenceCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisEvidenceCache connects to Redis and verifies the connection
func NewRedisEvidenceCache(cfg RedisConfig) (*RedisEvidenceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisEvidenceCache{client: client, keyPrefix: defaultKeyPrefix}, nil
}

// NewRedisEvidenceCacheWithClient creates a cache with an existing Redis client
func NewRedisEvidenceCacheWithClient(client *redis.Client, keyPrefix string) *RedisEvidenceCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisEvidenceCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached items; a missing key is a miss, not an error
func (c *RedisEvidenceCache) Get(ctx context.Context, key string) ([]evidence.Item, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read evidence cache: %w", err)
	}

	var items []evidence.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached evidence: %w", err)
	}
	return items, true, nil
}

// Set stores items with a TTL
func (c *RedisEvidenceCache) Set(ctx context.Context, key string, items []evidence.Item, ttl time.Duration) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write evidence cache: %w", err)
	}
	return nil
}

// Delete removes a cached entry
func (c *RedisEvidenceCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete evidence cache entry: %w", err)
	}
	return nil
}

// Ping checks connectivity for health reporting
func (c *RedisEvidenceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisEvidenceCache) Close() error {
	return c.client.Close()
}
