package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache wraps patrickmn/go-cache for in-process counters
type LocalCache struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

// NewLocalCache creates a new local counter store. Expired counters are
// purged every cleanupInterval.
func NewLocalCache(cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a counter from the local cache
func (l *LocalCache) Get(ctx context.Context, key, group string) (int64, bool, error) {
	val, found := l.cache.Get(groupKey(key, group))
	if !found {
		return 0, false, nil
	}
	count, ok := val.(int64)
	if !ok {
		return 0, true, nil
	}
	return count, true, nil
}

// Set stores a counter in the local cache
func (l *LocalCache) Set(ctx context.Context, key string, value int64, group string, ttl time.Duration) error {
	l.cache.Set(groupKey(key, group), value, localTTL(ttl))
	return nil
}

// Increment bumps a counter and resets its expiry under a mutex
func (l *LocalCache) Increment(ctx context.Context, key, group string, ttl time.Duration) (int64, error) {
	k := groupKey(key, group)

	l.mu.Lock()
	defer l.mu.Unlock()

	var next int64 = 1
	if val, found := l.cache.Get(k); found {
		if count, ok := val.(int64); ok {
			next = count + 1
		}
	}
	l.cache.Set(k, next, localTTL(ttl))
	return next, nil
}

// TTL returns the remaining lifetime of a counter
func (l *LocalCache) TTL(ctx context.Context, key, group string) (time.Duration, error) {
	_, expires, found := l.cache.GetWithExpiration(groupKey(key, group))
	if !found || expires.IsZero() {
		return 0, nil
	}
	if remaining := time.Until(expires); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Keys lists the unexpired counters of a group
func (l *LocalCache) Keys(ctx context.Context, group string) ([]string, error) {
	prefix := groupKey("", group)

	var keys []string
	for k := range l.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
