package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

// RedisSettings describes the Redis server holding token sessions, the access
// token blacklist and OTP attempt counters.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// Required makes an unreachable server fatal instead of falling back to
	// the in-memory token store.
	Required bool
}

func LoadRedisSettings() RedisSettings {
	return RedisSettings{
		Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       GetInt("REDIS_DB", 0),
		PoolSize: GetInt("REDIS_POOL_SIZE", 10),
		Required: GetBool("REDIS_REQUIRED", false),
	}
}

func (s RedisSettings) Options() *redis.Options {
	return &redis.Options{
		Addr:         s.Addr,
		Password:     s.Password,
		DB:           s.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     s.PoolSize,
		MinIdleConns: s.PoolSize / 2,
		MaxRetries:   3,
	}
}

// ConnectRedis pings the configured server. When Redis is optional and the
// ping fails it returns a nil client and a nil error.
func ConnectRedis(ctx context.Context, s RedisSettings) (*redis.Client, error) {
	client := redis.NewClient(s.Options())

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if s.Required {
			return nil, fmt.Errorf("redis at %s: %w", s.Addr, err)
		}
		log.Printf("Warning: Redis connection to %s failed: %v", s.Addr, err)
		return nil, nil
	}

	log.Printf("Connected to Redis at %s (db %d)", s.Addr, s.DB)
	RedisClient = client
	return client, nil
}

// CloseRedis closes the shared client, if any.
func CloseRedis() {
	if RedisClient != nil {
		RedisClient.Close()
		RedisClient = nil
	}
}
