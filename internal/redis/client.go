package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb    *redis.Client
	config *Config
}

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// GetCounter reads an integer counter. found is false when the key is absent.
// A value that does not parse as an integer is reported as present with count 0.
func (c *Client) GetCounter(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get counter %s: %w", key, err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, true, nil
	}
	return count, true, nil
}

// SetCounter overwrites a counter and resets its expiry to ttl
func (c *Client) SetCounter(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set counter %s: %w", key, err)
	}
	return nil
}

// incrScript increments KEYS[1] and sets its expiry to ARGV[1] milliseconds.
// A value INCR rejects (not an integer, out of range) restarts at 1, the same
// way GetCounter reads it as 0.
var incrScript = redis.NewScript(`
local count = redis.pcall('INCR', KEYS[1])
if type(count) ~= 'number' then
	redis.call('SET', KEYS[1], 1)
	count = 1
end
if tonumber(ARGV[1]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
else
	redis.call('PERSIST', KEYS[1])
end
return count
`)

// IncrCounter increments a counter and resets its expiry in one script call
func (c *Client) IncrCounter(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := incrScript.Run(ctx, c.rdb, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return count, nil
}

// TTL returns the remaining lifetime of key. Negative values follow Redis semantics.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.rdb.TTL(ctx, key).Result()
}

// ScanKeys lists keys matching pattern using SCAN
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys %s: %w", pattern, err)
	}
	return keys, nil
}
