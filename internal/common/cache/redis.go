package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"toolgate/internal/common/errors"
)

// RedisClient is the subset of the Redis client the counter store needs
type RedisClient interface {
	GetCounter(ctx context.Context, key string) (int64, bool, error)
	SetCounter(ctx context.Context, key string, value int64, ttl time.Duration) error
	IncrCounter(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	Health() error
}

// RedisCache stores counters in Redis under {group}:{key}
type RedisCache struct {
	client RedisClient
}

// NewRedisCache creates a new Redis counter store
func NewRedisCache(client RedisClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a counter from Redis
func (r *RedisCache) Get(ctx context.Context, key, group string) (int64, bool, error) {
	count, found, err := r.client.GetCounter(ctx, groupKey(key, group))
	if err != nil {
		return 0, false, errors.StoreUnavailableError("redis", err)
	}
	return count, found, nil
}

// Set stores a counter in Redis
func (r *RedisCache) Set(ctx context.Context, key string, value int64, group string, ttl time.Duration) error {
	if err := r.client.SetCounter(ctx, groupKey(key, group), value, ttl); err != nil {
		return errors.StoreUnavailableError("redis", err)
	}
	return nil
}

// Increment runs INCR and EXPIRE in one transaction
func (r *RedisCache) Increment(ctx context.Context, key, group string, ttl time.Duration) (int64, error) {
	count, err := r.client.IncrCounter(ctx, groupKey(key, group), ttl)
	if err != nil {
		return 0, errors.StoreUnavailableError("redis", err)
	}
	return count, nil
}

// TTL returns the remaining lifetime of a counter
func (r *RedisCache) TTL(ctx context.Context, key, group string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, groupKey(key, group))
	if err != nil {
		return 0, errors.StoreUnavailableError("redis", err)
	}
	// -1 and -2 mean no expiry and absent
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Keys lists the counters of a group using SCAN
func (r *RedisCache) Keys(ctx context.Context, group string) ([]string, error) {
	prefix := groupKey("", group)

	raw, err := r.client.ScanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, errors.StoreUnavailableError("redis", err)
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

// Health pings Redis
func (r *RedisCache) Health(ctx context.Context) error {
	if err := r.client.Health(); err != nil {
		return errors.StoreUnavailableError("redis", err)
	}
	return nil
}
