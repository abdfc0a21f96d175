package ratelimit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy supplies the limits a guard enforces. Implementations must be safe
// for concurrent use.
type Policy interface {
	// ExecutionLimit is the per-window limit for one operation of one user
	ExecutionLimit(operation string, userID int64) int
	// GlobalCeiling is the per-window limit across all operations of a user
	GlobalCeiling() int
	// DiscoveryLimit is the per-window limit for one network identity
	DiscoveryLimit(ip string) int
}

// DefaultPolicy enforces 30 per operation, 60 per user and 100 per IP
type DefaultPolicy struct{}

func (DefaultPolicy) ExecutionLimit(string, int64) int { return DefaultExecutionLimit }
func (DefaultPolicy) GlobalCeiling() int               { return DefaultGlobalCeiling }
func (DefaultPolicy) DiscoveryLimit(string) int        { return DefaultDiscoveryLimit }

// StaticPolicy serves fixed limits with optional per-operation overrides
type StaticPolicy struct {
	Execution  int
	Global     int
	Discovery  int
	Operations map[string]int
}

// NewStaticPolicy builds a StaticPolicy from a guard configuration
func NewStaticPolicy(config Config) *StaticPolicy {
	return &StaticPolicy{
		Execution: config.ExecutionLimit,
		Global:    config.GlobalCeiling,
		Discovery: config.DiscoveryLimit,
	}
}

func (p *StaticPolicy) ExecutionLimit(operation string, _ int64) int {
	if limit, ok := p.Operations[operation]; ok {
		return limit
	}
	return p.Execution
}

func (p *StaticPolicy) GlobalCeiling() int {
	return p.Global
}

func (p *StaticPolicy) DiscoveryLimit(string) int {
	return p.Discovery
}

// PolicyFuncs adapts plain functions to Policy. Nil functions fall back to
// DefaultPolicy.
type PolicyFuncs struct {
	ExecutionFunc func(operation string, userID int64) int
	GlobalFunc    func() int
	DiscoveryFunc func(ip string) int
}

func (f PolicyFuncs) ExecutionLimit(operation string, userID int64) int {
	if f.ExecutionFunc == nil {
		return DefaultExecutionLimit
	}
	return f.ExecutionFunc(operation, userID)
}

func (f PolicyFuncs) GlobalCeiling() int {
	if f.GlobalFunc == nil {
		return DefaultGlobalCeiling
	}
	return f.GlobalFunc()
}

func (f PolicyFuncs) DiscoveryLimit(ip string) int {
	if f.DiscoveryFunc == nil {
		return DefaultDiscoveryLimit
	}
	return f.DiscoveryFunc(ip)
}

// PolicyFile is the YAML layout read by LoadFilePolicy
//
//	global_ceiling: 120
//	discovery_limit: 200
//	execution_limits:
//	  wp/search-posts: 10
//	user_limits:
//	  7:
//	    wp/search-posts: 50
//	discovery_limits:
//	  203.0.113.5: 1000
type PolicyFile struct {
	GlobalCeiling   int                      `yaml:"global_ceiling"`
	DiscoveryLimit  int                      `yaml:"discovery_limit"`
	ExecutionLimits map[string]int           `yaml:"execution_limits"`
	UserLimits      map[int64]map[string]int `yaml:"user_limits"`
	DiscoveryLimits map[string]int           `yaml:"discovery_limits"`
}

// FilePolicy layers overrides from a PolicyFile over a base policy
type FilePolicy struct {
	base Policy
	file PolicyFile
}

// NewFilePolicy creates a FilePolicy. A nil base uses DefaultPolicy.
func NewFilePolicy(file PolicyFile, base Policy) (*FilePolicy, error) {
	if base == nil {
		base = DefaultPolicy{}
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &FilePolicy{base: base, file: file}, nil
}

// LoadFilePolicy reads a YAML policy file
func LoadFilePolicy(path string, base Policy) (*FilePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	return NewFilePolicy(file, base)
}

func (f PolicyFile) validate() error {
	if f.GlobalCeiling < 0 {
		return fmt.Errorf("global_ceiling must not be negative")
	}
	if f.DiscoveryLimit < 0 {
		return fmt.Errorf("discovery_limit must not be negative")
	}
	for op, limit := range f.ExecutionLimits {
		if limit <= 0 {
			return fmt.Errorf("execution limit for %q must be positive", op)
		}
	}
	for uid, ops := range f.UserLimits {
		for op, limit := range ops {
			if limit <= 0 {
				return fmt.Errorf("execution limit for user %d operation %q must be positive", uid, op)
			}
		}
	}
	for ip, limit := range f.DiscoveryLimits {
		if limit <= 0 {
			return fmt.Errorf("discovery limit for %q must be positive", ip)
		}
	}
	return nil
}

func (p *FilePolicy) ExecutionLimit(operation string, userID int64) int {
	if limit, ok := p.file.UserLimits[userID][operation]; ok {
		return limit
	}
	if limit, ok := p.file.ExecutionLimits[operation]; ok {
		return limit
	}
	return p.base.ExecutionLimit(operation, userID)
}

func (p *FilePolicy) GlobalCeiling() int {
	if p.file.GlobalCeiling > 0 {
		return p.file.GlobalCeiling
	}
	return p.base.GlobalCeiling()
}

func (p *FilePolicy) DiscoveryLimit(ip string) int {
	if limit, ok := p.file.DiscoveryLimits[ip]; ok {
		return limit
	}
	if p.file.DiscoveryLimit > 0 {
		return p.file.DiscoveryLimit
	}
	return p.base.DiscoveryLimit(ip)
}
