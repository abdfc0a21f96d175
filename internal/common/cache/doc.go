// Package cache provides the TTL-capable counter stores behind the rate limiter.
//
// This package wraps battle-tested libraries:
//   - github.com/patrickmn/go-cache for in-process counters
//   - github.com/go-redis/redis/v8 (through internal/redis) for shared counters
//   - github.com/sony/gobreaker (through internal/circuitbreaker) to fail fast
//     when Redis is down
//
// Every store implements Store. Keys are namespaced by a group and a stored
// value that is not an integer is read back as a present counter of 0.
//
// 1. Local Cache - go-cache
//   - Counters live in process memory
//   - Expired counters are purged by the janitor
//   - Increment is atomic under a mutex
//
// 2. Redis Cache - go-redis
//   - Shared across instances, stored as {group}:{key}
//   - Increment uses INCR + EXPIRE in MULTI/EXEC
//   - Backend failures are reported as store_unavailable errors
//
// 3. Breaker Cache - wraps another store with a circuit breaker
//
// Usage:
//
//	store := cache.NewLocalCache(time.Minute)
//	_ = store.Set(ctx, "exec_7_global", 1, "toolgate_rate", time.Minute)
//	count, found, err := store.Get(ctx, "exec_7_global", "toolgate_rate")
//
//	// Using factory
//	breaker := circuitbreaker.DefaultConfig()
//	store, err := cache.New(cache.Config{
//		Type:        cache.TypeRedis,
//		RedisClient: redisClient,
//		Breaker:     &breaker,
//	})
package cache
