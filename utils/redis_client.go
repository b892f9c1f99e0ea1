package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalcircle/vitalcircle/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis returns the shared Redis client, or nil when no Redis host is configured.
// Every caller treats nil as "feature degraded", never as an error.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		if cfg.RedisHost == "" {
			Sugar.Info("redis disabled: REDIS_HOST not set")
			return
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			Sugar.Warnw("redis ping failed, continuing", "addr", redisClient.Options().Addr, "error", err)
		}
	})
	return redisClient
}

// CloseRedis releases the shared client on shutdown.
func CloseRedis() {
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
