package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"toolgate/internal/common/cache"
	"toolgate/internal/common/logging"
	"toolgate/internal/config"
	"toolgate/internal/ratelimit"
	"toolgate/internal/redis"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	RedisClient *redis.Client
	Store       cache.Store
	Policy      ratelimit.Policy
	Guard       *ratelimit.Guard
	Registry    *prometheus.Registry
	Metrics     *ratelimit.Metrics
	Logger      logging.Logger
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
		Registry: prometheus.NewRegistry(),
	}

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = ratelimit.NewMetrics(app.Registry)

	if cfg.CounterStore == string(cache.TypeRedis) {
		if err := app.initializeRedis(); err != nil {
			// Counters fall back to this process only
			app.Logger.Warn("Redis initialization failed, using local counter store",
				logging.Err(err))
		}
	}

	if err := app.initializeStore(); err != nil {
		return nil, err
	}

	if err := app.initializeGuard(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis client", logging.Err(err))
		}
		app.RedisClient = nil
	}
}
