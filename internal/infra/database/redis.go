package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sacavia/feedengine/internal/config"
)

func NewRedis(bus config.Bus) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        bus.RedisAddr,
		Password:    bus.RedisPassword,
		DB:          bus.RedisDB,
		DialTimeout: 3 * time.Second,
	})
}

// PingRedis checks connectivity without blocking longer than timeout.
func PingRedis(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
