package app

import (
	"toolgate/internal/common/logging"
	"toolgate/internal/redis"
)

func (app *App) initializeRedis() error {
	redisConfig := &redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDBNumber(),
		PoolSize: app.Config.RedisPoolSizeNumber(),
	}

	redisClient, err := redis.NewClient(redisConfig)
	if err != nil {
		return err
	}

	app.RedisClient = redisClient
	app.Logger.Info("Redis: Connected",
		logging.String("address", app.Config.RedisAddress),
		logging.Int("db", redisConfig.DB),
	)

	return nil
}
