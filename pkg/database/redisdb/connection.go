package redisdb

import (
	"context"
	"fmt"
	"time"

	"nusantara-erp/pkg/config"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	_, err := backoff.Retry(ctx, func() (string, error) {
		return client.Ping(ctx).Result()
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("redis not reachable, retrying", zap.Error(err), zap.Duration("next", next))
		}),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("address", cfg.Address))
	return client, nil
}
