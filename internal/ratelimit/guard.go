package ratelimit

import (
	"context"
	"time"

	"toolgate/internal/common/cache"
	"toolgate/internal/common/errors"
	"toolgate/internal/common/logging"
)

// Guard answers admission checks for execution and discovery requests
type Guard struct {
	engine  *Engine
	policy  Policy
	config  Config
	logger  logging.Logger
	metrics *Metrics
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithLogger sets the guard logger
func WithLogger(logger logging.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithMetrics records decisions and store latency
func WithMetrics(m *Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

// NewGuard creates a guard over store. A nil policy enforces the limits in config.
func NewGuard(store cache.Store, policy Policy, config Config, opts ...GuardOption) (*Guard, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if policy == nil {
		policy = NewStaticPolicy(config)
	}

	g := &Guard{
		policy: policy,
		config: config,
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}

	engineOpts := []EngineOption{WithEngineMetrics(g.metrics)}
	if config.Atomic {
		engineOpts = append(engineOpts, WithAtomicIncrement())
	}
	g.engine = NewEngine(store, engineOpts...)

	if config.Atomic && !g.engine.Atomic() {
		g.logger.Warn("Counter store has no atomic increment, using read-then-write")
	}

	return g, nil
}

// Policy returns the policy the guard enforces
func (g *Guard) Policy() Policy {
	return g.policy
}

// Config returns the validated guard configuration
func (g *Guard) Config() Config {
	return g.config
}

// Engine returns the counter engine
func (g *Guard) Engine() *Engine {
	return g.engine
}

// Tiers name the counter that decided a check
const (
	TierOperation = "operation"
	TierGlobal    = "global"
	TierDiscovery = "discovery"
)

// Decision is the outcome of one admission check. Tier, Limit and Count
// describe the counter that rejected the call. Err is set when the counter
// store failed and Allowed then follows the failure mode.
type Decision struct {
	Allowed bool
	Tier    string
	Limit   int64
	Count   int64
	Window  time.Duration
	Err     error
}

// CheckExecution reports whether userID may run operation now. An admitted
// call increments both the operation counter and the user's global counter.
// A rejected call increments nothing.
func (g *Guard) CheckExecution(ctx context.Context, userID int64, operation string) bool {
	return g.EvaluateExecution(ctx, userID, operation).Allowed
}

// EvaluateExecution runs the execution check and reports which tier decided it
func (g *Guard) EvaluateExecution(ctx context.Context, userID int64, operation string) Decision {
	window := g.config.ExecutionWindow
	if !g.config.Enabled {
		return Decision{Allowed: true, Window: window}
	}

	limit := int64(g.policy.ExecutionLimit(operation, userID))
	ceiling := int64(g.policy.GlobalCeiling())

	opKey := ExecutionKey(userID, operation)
	globalKey := GlobalKey(userID)

	logger := g.logger.WithContext(ctx).WithFields(
		logging.Int64("user_id", userID),
		logging.String("operation", operation),
	)

	opCount, err := g.engine.Peek(ctx, opKey)
	if err != nil {
		return g.storeFailure(logger, GuardExecution, window, err)
	}
	globalCount, err := g.engine.Peek(ctx, globalKey)
	if err != nil {
		return g.storeFailure(logger, GuardExecution, window, err)
	}

	if opCount >= limit || globalCount >= ceiling {
		logger.Debug("Execution rate limit exceeded",
			logging.Int64("count", opCount),
			logging.Int64("limit", limit),
			logging.Int64("global_count", globalCount),
			logging.Int64("global_ceiling", ceiling),
		)
		g.metrics.decision(GuardExecution, OutcomeRejected)

		if opCount >= limit {
			return Decision{Tier: TierOperation, Limit: limit, Count: opCount, Window: window}
		}
		return Decision{Tier: TierGlobal, Limit: ceiling, Count: globalCount, Window: window}
	}

	if err := g.engine.Bump(ctx, opKey, window); err != nil {
		return g.storeFailure(logger, GuardExecution, window, err)
	}
	if err := g.engine.Bump(ctx, globalKey, window); err != nil {
		return g.storeFailure(logger, GuardExecution, window, err)
	}

	g.metrics.decision(GuardExecution, OutcomeAllowed)
	return Decision{Allowed: true, Window: window}
}

// CheckDiscovery reports whether ip may issue a discovery request now
func (g *Guard) CheckDiscovery(ctx context.Context, ip string) bool {
	return g.EvaluateDiscovery(ctx, ip).Allowed
}

// EvaluateDiscovery runs the discovery check for ip
func (g *Guard) EvaluateDiscovery(ctx context.Context, ip string) Decision {
	window := g.config.DiscoveryWindow
	if !g.config.Enabled {
		return Decision{Allowed: true, Window: window}
	}

	limit := int64(g.policy.DiscoveryLimit(ip))
	key := DiscoveryKey(ip)

	logger := g.logger.WithContext(ctx).WithFields(logging.String("ip", ip))

	count, err := g.engine.Peek(ctx, key)
	if err != nil {
		return g.storeFailure(logger, GuardDiscovery, window, err)
	}

	if count >= limit {
		logger.Debug("Discovery rate limit exceeded",
			logging.Int64("count", count),
			logging.Int64("limit", limit),
		)
		g.metrics.decision(GuardDiscovery, OutcomeRejected)
		return Decision{Tier: TierDiscovery, Limit: limit, Count: count, Window: window}
	}

	if err := g.engine.Bump(ctx, key, window); err != nil {
		return g.storeFailure(logger, GuardDiscovery, window, err)
	}

	g.metrics.decision(GuardDiscovery, OutcomeAllowed)
	return Decision{Allowed: true, Window: window}
}

func (g *Guard) storeFailure(logger logging.Logger, guard string, window time.Duration, err error) Decision {
	allow := g.config.FailMode != FailClosed
	logger.Error("Counter store failed during rate limit check", err,
		logging.String("guard", guard),
		logging.String("fail_mode", string(g.config.FailMode)),
		logging.Bool("allowed", allow),
	)
	g.metrics.decision(guard, OutcomeStoreError)

	if !errors.IsType(err, errors.ErrTypeStoreUnavailable) {
		err = errors.StoreUnavailableError("counter", err)
	}
	return Decision{Allowed: allow, Window: window, Err: err}
}

// ExecutionUsage describes the counters behind an execution check
type ExecutionUsage struct {
	UserID        int64         `json:"user_id"`
	Operation     string        `json:"operation,omitempty"`
	Count         int64         `json:"count"`
	Limit         int           `json:"limit"`
	GlobalCount   int64         `json:"global_count"`
	GlobalCeiling int           `json:"global_ceiling"`
	Window        time.Duration `json:"-"`
	WindowSeconds int           `json:"window_seconds"`
}

// DiscoveryUsage describes the counter behind a discovery check
type DiscoveryUsage struct {
	IP            string        `json:"ip"`
	Count         int64         `json:"count"`
	Limit         int           `json:"limit"`
	Window        time.Duration `json:"-"`
	WindowSeconds int           `json:"window_seconds"`
}

// ExecutionUsage reads the counters of a user without changing them. The
// operation counter is skipped when operation is empty.
func (g *Guard) ExecutionUsage(ctx context.Context, userID int64, operation string) (*ExecutionUsage, error) {
	usage := &ExecutionUsage{
		UserID:        userID,
		Operation:     operation,
		GlobalCeiling: g.policy.GlobalCeiling(),
		Window:        g.config.ExecutionWindow,
		WindowSeconds: int(g.config.ExecutionWindow.Seconds()),
	}

	global, err := g.engine.Peek(ctx, GlobalKey(userID))
	if err != nil {
		return nil, err
	}
	usage.GlobalCount = global

	if operation != "" {
		count, err := g.engine.Peek(ctx, ExecutionKey(userID, operation))
		if err != nil {
			return nil, err
		}
		usage.Count = count
		usage.Limit = g.policy.ExecutionLimit(operation, userID)
	}

	return usage, nil
}

// DiscoveryUsage reads the discovery counter of ip without changing it
func (g *Guard) DiscoveryUsage(ctx context.Context, ip string) (*DiscoveryUsage, error) {
	count, err := g.engine.Peek(ctx, DiscoveryKey(ip))
	if err != nil {
		return nil, err
	}

	return &DiscoveryUsage{
		IP:            ip,
		Count:         count,
		Limit:         g.policy.DiscoveryLimit(ip),
		Window:        g.config.DiscoveryWindow,
		WindowSeconds: int(g.config.DiscoveryWindow.Seconds()),
	}, nil
}
