package app

import (
	"time"

	"toolgate/internal/circuitbreaker"
	"toolgate/internal/common/cache"
	"toolgate/internal/common/logging"
	"toolgate/internal/ratelimit"
)

// initializeStore picks the counter store. Redis is used only when it connected.
func (app *App) initializeStore() error {
	storeConfig := cache.Config{
		Type:            cache.TypeLocal,
		CleanupInterval: time.Minute,
		Logger:          app.Logger,
	}

	if app.RedisClient != nil {
		storeConfig.Type = cache.TypeRedis
		storeConfig.RedisClient = app.RedisClient
		if app.Config.StoreBreakerEnabled {
			breaker := circuitbreaker.DefaultConfig()
			storeConfig.Breaker = &breaker
		}
	}

	store, err := cache.New(storeConfig)
	if err != nil {
		return err
	}

	app.Store = store
	app.Logger.Info("Counter store ready",
		logging.String("type", string(storeConfig.Type)),
		logging.Bool("breaker", storeConfig.Breaker != nil),
	)
	return nil
}

// initializeGuard builds the policy and the admission guard
func (app *App) initializeGuard() error {
	guardConfig := app.Config.RateLimit()

	var policy ratelimit.Policy = ratelimit.NewStaticPolicy(guardConfig)
	if path := app.Config.RateLimitPolicyFile; path != "" {
		filePolicy, err := ratelimit.LoadFilePolicy(path, policy)
		if err != nil {
			return err
		}
		policy = filePolicy
		app.Logger.Info("Rate limit policy file loaded", logging.String("path", path))
	}

	guard, err := ratelimit.NewGuard(app.Store, policy, guardConfig,
		ratelimit.WithLogger(logging.GetGlobalLogger().WithFields(logging.String("component", "ratelimit"))),
		ratelimit.WithMetrics(app.Metrics),
	)
	if err != nil {
		return err
	}

	app.Policy = policy
	app.Guard = guard

	if !guardConfig.Enabled {
		app.Logger.Warn("Rate Limiting: Disabled")
		return nil
	}

	app.Logger.Info("Rate Limiting: Enabled",
		logging.Int("execution_limit", guardConfig.ExecutionLimit),
		logging.Int("global_ceiling", guardConfig.GlobalCeiling),
		logging.Int("discovery_limit", guardConfig.DiscoveryLimit),
		logging.Duration("execution_window", guardConfig.ExecutionWindow),
		logging.Duration("discovery_window", guardConfig.DiscoveryWindow),
		logging.Bool("atomic", guard.Engine().Atomic()),
		logging.String("fail_mode", string(guardConfig.FailMode)),
	)
	return nil
}
