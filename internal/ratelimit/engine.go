package ratelimit

import (
	"context"
	"time"

	"toolgate/internal/common/cache"
)

// Engine reads and increments counters in a cache.Store. It keeps no state of
// its own and takes no locks, so two concurrent requests may both pass a
// check at limit-1 or lose one increment.
type Engine struct {
	store   cache.Store
	group   string
	atomic  cache.AtomicIncrementer
	metrics *Metrics
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithAtomicIncrement makes Bump use the store's increment primitive when the
// store provides one. Stores without it keep the read-then-write path.
func WithAtomicIncrement() EngineOption {
	return func(e *Engine) {
		if !cache.SupportsIncrement(e.store) {
			return
		}
		if inc, ok := e.store.(cache.AtomicIncrementer); ok {
			e.atomic = inc
		}
	}
}

// WithEngineMetrics records store latency
func WithEngineMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a counter engine over store
func NewEngine(store cache.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store: store,
		group: Group,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Atomic reports whether Bump uses an atomic increment
func (e *Engine) Atomic() bool {
	return e.atomic != nil
}

// Peek returns the current count of key. Absent, expired and corrupt
// counters read as 0.
func (e *Engine) Peek(ctx context.Context, key string) (int64, error) {
	defer e.metrics.observeStore("get", time.Now())

	count, found, err := e.store.Get(ctx, key, e.group)
	if err != nil {
		return 0, err
	}
	if !found || count < 0 {
		return 0, nil
	}
	return count, nil
}

// Bump increments key and resets its expiry to window. A missing counter
// starts at 1.
func (e *Engine) Bump(ctx context.Context, key string, window time.Duration) error {
	if e.atomic != nil {
		defer e.metrics.observeStore("incr", time.Now())
		_, err := e.atomic.Increment(ctx, key, e.group, window)
		return err
	}

	current, err := e.Peek(ctx, key)
	if err != nil {
		return err
	}

	defer e.metrics.observeStore("set", time.Now())
	return e.store.Set(ctx, key, current+1, e.group, window)
}
