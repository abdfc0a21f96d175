package cache

import (
	"context"
	"time"
)

// Store is a TTL-capable integer counter store. Keys live inside a group so
// unrelated callers sharing one backend cannot collide.
type Store interface {
	// Get returns the stored count. found is false when the key is absent or
	// expired. A stored value that is not an integer reads as found with count 0.
	Get(ctx context.Context, key, group string) (count int64, found bool, err error)
	// Set overwrites the count and resets the expiry to ttl.
	Set(ctx context.Context, key string, value int64, group string, ttl time.Duration) error
}

// AtomicIncrementer is implemented by stores that can increment and refresh
// the expiry of a counter in one step.
type AtomicIncrementer interface {
	Increment(ctx context.Context, key, group string, ttl time.Duration) (int64, error)
}

// Inspector exposes read-only views used by the counters API and tests.
type Inspector interface {
	// TTL returns the remaining lifetime of a counter, 0 when absent.
	TTL(ctx context.Context, key, group string) (time.Duration, error)
	// Keys lists the counter keys of a group without the group prefix.
	Keys(ctx context.Context, group string) ([]string, error)
}

// HealthChecker is implemented by stores backed by a remote service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func groupKey(key, group string) string {
	if group == "" {
		return key
	}
	return group + ":" + key
}
