package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lentaproject/lenta/config"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client using loaded configuration.
// The cache and state helpers tolerate a nil client and degrade to
// pass-through behavior, so a missing Redis never blocks serving.
func InitRedis(cfg config.AppConfig) {
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
	if err := redisClient.Ping(ctx).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("redis unreachable, page caching disabled: %v", err)
	}
}

// SetRedisClient replaces the shared client. Tests point it at a fake server.
func SetRedisClient(c *redis.Client) {
	redisClient = c
}

// GetRedis returns the shared Redis client, which may be nil before InitRedis.
func GetRedis() *redis.Client {
	return redisClient
}
