package cache

import (
	"fmt"
	"time"

	"toolgate/internal/circuitbreaker"
	"toolgate/internal/common/logging"
)

// Type represents the counter store backend type
type Type string

const (
	TypeLocal Type = "local"
	TypeRedis Type = "redis"
)

// Config holds counter store configuration
type Config struct {
	Type            Type          `json:"type"`
	CleanupInterval time.Duration `json:"cleanup_interval,omitempty"`
	RedisClient     RedisClient   `json:"-"`
	// Breaker wraps the Redis store in a circuit breaker when set
	Breaker *circuitbreaker.Config `json:"-"`
	Logger  logging.Logger         `json:"-"`
}

// DefaultConfig returns default counter store configuration
func DefaultConfig() Config {
	return Config{
		Type:            TypeLocal,
		CleanupInterval: time.Minute,
	}
}

// New creates a counter store based on configuration
func New(config Config) (Store, error) {
	switch config.Type {
	case TypeLocal, "":
		cleanup := config.CleanupInterval
		if cleanup <= 0 {
			cleanup = time.Minute
		}
		return NewLocalCache(cleanup), nil

	case TypeRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for redis counter store")
		}
		store := NewRedisCache(config.RedisClient)
		if config.Breaker == nil {
			return store, nil
		}
		breaker := circuitbreaker.NewGoBreaker("counter-store-redis", *config.Breaker, config.Logger)
		return NewBreakerCache(store, breaker, string(TypeRedis)), nil

	default:
		return nil, fmt.Errorf("unknown counter store type: %s", config.Type)
	}
}
