package cache

import (
	"context"
	"time"

	"toolgate/internal/circuitbreaker"
	"toolgate/internal/common/errors"
)

// BreakerCache guards a remote store with a circuit breaker. While the
// breaker is open calls fail fast with a store_unavailable error.
type BreakerCache struct {
	store   Store
	breaker *circuitbreaker.GoBreakerAdapter
	backend string
}

// NewBreakerCache wraps store with breaker
func NewBreakerCache(store Store, breaker *circuitbreaker.GoBreakerAdapter, backend string) *BreakerCache {
	return &BreakerCache{
		store:   store,
		breaker: breaker,
		backend: backend,
	}
}

// Unwrap returns the guarded store
func (b *BreakerCache) Unwrap() Store {
	return b.store
}

// Breaker returns the circuit breaker guarding the store
func (b *BreakerCache) Breaker() *circuitbreaker.GoBreakerAdapter {
	return b.breaker
}

// Get retrieves a counter through the breaker
func (b *BreakerCache) Get(ctx context.Context, key, group string) (int64, bool, error) {
	var (
		count int64
		found bool
	)
	err := b.breaker.Execute(func() error {
		var err error
		count, found, err = b.store.Get(ctx, key, group)
		return err
	})
	if err != nil {
		return 0, false, b.wrap(err)
	}
	return count, found, nil
}

// Set stores a counter through the breaker
func (b *BreakerCache) Set(ctx context.Context, key string, value int64, group string, ttl time.Duration) error {
	err := b.breaker.Execute(func() error {
		return b.store.Set(ctx, key, value, group, ttl)
	})
	return b.wrap(err)
}

// Increment bumps a counter through the breaker
func (b *BreakerCache) Increment(ctx context.Context, key, group string, ttl time.Duration) (int64, error) {
	inc, ok := b.store.(AtomicIncrementer)
	if !ok {
		return 0, errors.InternalError("counter store does not support atomic increment", nil)
	}

	var count int64
	err := b.breaker.Execute(func() error {
		var err error
		count, err = inc.Increment(ctx, key, group, ttl)
		return err
	})
	if err != nil {
		return 0, b.wrap(err)
	}
	return count, nil
}

// TTL bypasses the breaker
func (b *BreakerCache) TTL(ctx context.Context, key, group string) (time.Duration, error) {
	insp, ok := b.store.(Inspector)
	if !ok {
		return 0, errors.InternalError("counter store does not support inspection", nil)
	}
	return insp.TTL(ctx, key, group)
}

// Keys bypasses the breaker
func (b *BreakerCache) Keys(ctx context.Context, group string) ([]string, error) {
	insp, ok := b.store.(Inspector)
	if !ok {
		return nil, errors.InternalError("counter store does not support inspection", nil)
	}
	return insp.Keys(ctx, group)
}

// Health reports the guarded store health, or unavailable while the breaker is open
func (b *BreakerCache) Health(ctx context.Context) error {
	if b.breaker.State() == circuitbreaker.StateOpen {
		return errors.StoreUnavailableError(b.backend, nil).
			WithContext("breaker", b.breaker.Name())
	}
	if hc, ok := b.store.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

func (b *BreakerCache) wrap(err error) error {
	if err == nil || errors.IsType(err, errors.ErrTypeStoreUnavailable) {
		return err
	}
	return errors.StoreUnavailableError(b.backend, err)
}

// SupportsIncrement reports whether store can increment atomically
func SupportsIncrement(store Store) bool {
	if b, ok := store.(*BreakerCache); ok {
		return SupportsIncrement(b.Unwrap())
	}
	_, ok := store.(AtomicIncrementer)
	return ok
}
