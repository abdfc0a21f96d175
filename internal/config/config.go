// Package config provides configuration management for the toolgate service.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the service starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path, stdout when empty
//
// Counter Store:
//   - COUNTER_STORE: "local" or "redis" (default: local)
//   - STORE_BREAKER_ENABLED: Circuit breaker around the Redis store (default: true)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable the admission guards (default: true)
//   - RATE_LIMIT_EXECUTION: Calls per operation per user per window (default: 30)
//   - RATE_LIMIT_GLOBAL_CEILING: Calls per user per window across operations (default: 60)
//   - RATE_LIMIT_DISCOVERY: Discovery calls per IP per window (default: 100)
//   - RATE_LIMIT_EXECUTION_WINDOW: Execution window (default: 60s)
//   - RATE_LIMIT_DISCOVERY_WINDOW: Discovery window (default: 60s)
//   - RATE_LIMIT_ATOMIC: Use the store's atomic increment (default: false)
//   - RATE_LIMIT_FAIL_MODE: "open" or "closed" when the store fails (default: open)
//   - RATE_LIMIT_POLICY_FILE: YAML file with per-operation, per-user and per-IP overrides
//
// Tool Gateway:
//   - TOOLS_ENABLED: Serve the tool endpoints (default: true)
//   - DISCOVERY_PUBLIC: Allow discovery without X-User-ID (default: false)
//   - EXPOSED_TOOLS: Comma-separated tool names (default: built-in list)
//   - TRUSTED_PROXIES: Comma-separated proxy IPs or CIDRs allowed to set
//     X-Forwarded-For and X-Real-IP (default: empty, headers always honoured)
//
// Example usage:
//
//	config := config.Load()
//	if err := config.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"toolgate/internal/common/errors"
	"toolgate/internal/ratelimit"
)

// DefaultExposedTools is the tool list served when EXPOSED_TOOLS is unset
var DefaultExposedTools = []string{
	"wp/search-posts",
	"wp/get-post",
	"wp/get-categories",
	"wp/submit-comment",
}

// Config holds all configuration values for the service.
// String fields keep the raw environment value; typed accessors parse them
// after Validate has accepted the configuration.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)
	LogFile  string // Log file path, empty for stdout

	// Counter store
	CounterStore        string // "local" or "redis"
	StoreBreakerEnabled bool   // Wrap the Redis store in a circuit breaker

	// Redis configuration
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// Rate limiting configuration
	RateLimitEnabled         bool   // Whether the guards are enforced
	RateLimitExecution       string // Per-operation limit
	RateLimitGlobalCeiling   string // Per-user ceiling
	RateLimitDiscovery       string // Per-IP discovery limit
	RateLimitExecutionWindow string // Execution window (e.g. "60s")
	RateLimitDiscoveryWindow string // Discovery window
	RateLimitAtomic          bool   // Use atomic increments
	RateLimitFailMode        string // "open" or "closed"
	RateLimitPolicyFile      string // Optional YAML policy overrides

	// Tool gateway
	ToolsEnabled    bool   // Serve tool endpoints
	DiscoveryPublic bool   // Allow unauthenticated discovery
	ExposedTools    string // Comma-separated tool names
	TrustedProxies  string // Comma-separated proxy IPs or CIDRs
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		CounterStore:        getEnv("COUNTER_STORE", "local"),
		StoreBreakerEnabled: getBoolEnv("STORE_BREAKER_ENABLED", true),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		RateLimitEnabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitExecution:       getEnv("RATE_LIMIT_EXECUTION", "30"),
		RateLimitGlobalCeiling:   getEnv("RATE_LIMIT_GLOBAL_CEILING", "60"),
		RateLimitDiscovery:       getEnv("RATE_LIMIT_DISCOVERY", "100"),
		RateLimitExecutionWindow: getEnv("RATE_LIMIT_EXECUTION_WINDOW", "60s"),
		RateLimitDiscoveryWindow: getEnv("RATE_LIMIT_DISCOVERY_WINDOW", "60s"),
		RateLimitAtomic:          getBoolEnv("RATE_LIMIT_ATOMIC", false),
		RateLimitFailMode:        getEnv("RATE_LIMIT_FAIL_MODE", "open"),
		RateLimitPolicyFile:      getEnv("RATE_LIMIT_POLICY_FILE", ""),

		ToolsEnabled:    getBoolEnv("TOOLS_ENABLED", true),
		DiscoveryPublic: getBoolEnv("DISCOVERY_PUBLIC", false),
		ExposedTools:    getEnv("EXPOSED_TOOLS", strings.Join(DefaultExposedTools, ",")),
		TrustedProxies:  getEnv("TRUSTED_PROXIES", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
// Values strconv.ParseBool rejects fall back to the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all values are
// well formed before the service starts.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return errors.ConfigError("PORT must be a valid port number between 1 and 65535")
	}

	switch c.CounterStore {
	case "local":
	case "redis":
		if c.RedisAddress == "" {
			return errors.ConfigError("REDIS_ADDRESS is required when COUNTER_STORE is redis")
		}
	default:
		return errors.ConfigError("COUNTER_STORE must be 'local' or 'redis'")
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return errors.ConfigError("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return errors.ConfigError("REDIS_POOL_SIZE must be a positive number")
		}
	}

	limits := []struct {
		name  string
		value string
	}{
		{"RATE_LIMIT_EXECUTION", c.RateLimitExecution},
		{"RATE_LIMIT_GLOBAL_CEILING", c.RateLimitGlobalCeiling},
		{"RATE_LIMIT_DISCOVERY", c.RateLimitDiscovery},
	}
	for _, l := range limits {
		if limit, err := strconv.Atoi(l.value); err != nil || limit < 1 {
			return errors.ConfigError(fmt.Sprintf("%s must be a positive number", l.name))
		}
	}

	windows := []struct {
		name  string
		value string
	}{
		{"RATE_LIMIT_EXECUTION_WINDOW", c.RateLimitExecutionWindow},
		{"RATE_LIMIT_DISCOVERY_WINDOW", c.RateLimitDiscoveryWindow},
	}
	for _, w := range windows {
		d, err := time.ParseDuration(w.value)
		if err != nil {
			return errors.ConfigError(fmt.Sprintf("%s must be a valid duration (e.g., '60s', '1m')", w.name))
		}
		if d < time.Second {
			return errors.ConfigError(fmt.Sprintf("%s must be at least 1s", w.name))
		}
	}

	if _, err := ratelimit.ParseFailureMode(c.RateLimitFailMode); err != nil {
		return errors.ConfigError("RATE_LIMIT_FAIL_MODE must be 'open' or 'closed'")
	}

	if c.RateLimitPolicyFile != "" {
		if _, err := os.Stat(c.RateLimitPolicyFile); err != nil {
			return errors.ConfigError(fmt.Sprintf("RATE_LIMIT_POLICY_FILE is not readable: %v", err)).
				WithContext("path", c.RateLimitPolicyFile)
		}
	}

	if _, err := ratelimit.NewIPResolver(c.TrustedProxyList()); err != nil {
		return errors.ConfigError(fmt.Sprintf("TRUSTED_PROXIES is invalid: %v", err))
	}

	return nil
}

// RateLimit returns the guard configuration. Call after Validate.
func (c *Config) RateLimit() ratelimit.Config {
	execution, _ := strconv.Atoi(c.RateLimitExecution)
	global, _ := strconv.Atoi(c.RateLimitGlobalCeiling)
	discovery, _ := strconv.Atoi(c.RateLimitDiscovery)
	execWindow, _ := time.ParseDuration(c.RateLimitExecutionWindow)
	discWindow, _ := time.ParseDuration(c.RateLimitDiscoveryWindow)
	mode, _ := ratelimit.ParseFailureMode(c.RateLimitFailMode)

	return ratelimit.Config{
		Enabled:         c.RateLimitEnabled,
		ExecutionLimit:  execution,
		GlobalCeiling:   global,
		DiscoveryLimit:  discovery,
		ExecutionWindow: execWindow,
		DiscoveryWindow: discWindow,
		Atomic:          c.RateLimitAtomic,
		FailMode:        mode,
	}
}

// RedisDBNumber returns REDIS_DB as an int
func (c *Config) RedisDBNumber() int {
	db, _ := strconv.Atoi(c.RedisDB)
	return db
}

// RedisPoolSizeNumber returns REDIS_POOL_SIZE as an int
func (c *Config) RedisPoolSizeNumber() int {
	size, _ := strconv.Atoi(c.RedisPoolSize)
	return size
}

// ExposedToolList returns the configured tool names with surrounding
// whitespace removed, empty entries and duplicates dropped.
func (c *Config) ExposedToolList() []string {
	seen := make(map[string]bool)
	var tools []string
	for _, name := range strings.Split(c.ExposedTools, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tools = append(tools, name)
	}
	return tools
}

// TrustedProxyList returns the configured trusted proxies with empty entries dropped
func (c *Config) TrustedProxyList() []string {
	var proxies []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}
