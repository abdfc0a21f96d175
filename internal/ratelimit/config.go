package ratelimit

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied when a limit or window is left unset
const (
	DefaultExecutionLimit = 30
	DefaultGlobalCeiling  = 60
	DefaultDiscoveryLimit = 100
	DefaultWindow         = 60 * time.Second
)

// FailureMode decides the answer of a check when the counter store fails
type FailureMode string

const (
	// FailOpen admits requests the store could not account for
	FailOpen FailureMode = "open"
	// FailClosed rejects them
	FailClosed FailureMode = "closed"
)

// ParseFailureMode parses "open" or "closed"
func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	default:
		return "", fmt.Errorf("invalid failure mode %q: must be open or closed", s)
	}
}

// Config holds the guard configuration
type Config struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	ExecutionLimit  int           `json:"execution_limit" yaml:"execution_limit"`
	GlobalCeiling   int           `json:"global_ceiling" yaml:"global_ceiling"`
	DiscoveryLimit  int           `json:"discovery_limit" yaml:"discovery_limit"`
	ExecutionWindow time.Duration `json:"execution_window" yaml:"execution_window"`
	DiscoveryWindow time.Duration `json:"discovery_window" yaml:"discovery_window"`
	// Atomic switches Bump to the store's increment primitive when it has one
	Atomic   bool        `json:"atomic" yaml:"atomic"`
	FailMode FailureMode `json:"fail_mode" yaml:"fail_mode"`
}

// DefaultConfig returns the default guard configuration
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		ExecutionLimit:  DefaultExecutionLimit,
		GlobalCeiling:   DefaultGlobalCeiling,
		DiscoveryLimit:  DefaultDiscoveryLimit,
		ExecutionWindow: DefaultWindow,
		DiscoveryWindow: DefaultWindow,
		FailMode:        FailOpen,
	}
}

// Validate fills unset values with defaults and rejects negative ones
func (c *Config) Validate() error {
	if c.ExecutionLimit < 0 || c.GlobalCeiling < 0 || c.DiscoveryLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.ExecutionWindow < 0 || c.DiscoveryWindow < 0 {
		return fmt.Errorf("rate limit windows must not be negative")
	}

	if c.ExecutionLimit == 0 {
		c.ExecutionLimit = DefaultExecutionLimit
	}
	if c.GlobalCeiling == 0 {
		c.GlobalCeiling = DefaultGlobalCeiling
	}
	if c.DiscoveryLimit == 0 {
		c.DiscoveryLimit = DefaultDiscoveryLimit
	}
	if c.ExecutionWindow == 0 {
		c.ExecutionWindow = DefaultWindow
	}
	if c.DiscoveryWindow == 0 {
		c.DiscoveryWindow = DefaultWindow
	}

	mode, err := ParseFailureMode(string(c.FailMode))
	if err != nil {
		return err
	}
	c.FailMode = mode

	return nil
}
