package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/payflow/gateway/pkg/config"
)

func NewRedisClient(lc fx.Lifecycle, cfg *cfgpkg.Config, log *zap.SugaredLogger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return err
			}
			log.Infow("connected to redis", "addr", cfg.Redis.Addr)
			return nil
		},
		OnStop: func(context.Context) error {
			log.Infow("closing redis client")
			return rdb.Close()
		},
	})
	return rdb
}

func newRedisQueue(rdb *redis.Client, cfg *cfgpkg.Config, log *zap.SugaredLogger) *RedisQueue {
	return NewRedis(RedisQueueOptions{
		Client:     rdb,
		Logger:     log,
		Prefix:     cfg.Redis.Prefix,
		Visibility: cfg.Worker.VisibilityTimeout(),
	})
}

var Module = fx.Options(
	fx.Provide(NewRedisClient),
	fx.Provide(newRedisQueue),
	fx.Provide(func(q *RedisQueue) Queue { return q }),
	fx.Provide(func(q *RedisQueue) Consumer { return q }),
)
