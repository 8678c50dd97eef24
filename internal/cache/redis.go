package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisPrefix namespaces gateway keys in a shared Redis.
	DefaultRedisPrefix = "chatgate:"

	// DefaultRedisTTL is the fallback time-to-live for cached data, so stale
	// entries eventually expire if the application stops updating them.
	DefaultRedisTTL = 1 * time.Hour
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL, e.g. "redis://localhost:6379" or
	// "redis://:password@host:6379/0".
	URL string

	// Prefix is prepended to every key (defaults to "chatgate:").
	Prefix string

	// TTL is the default time-to-live for entries stored with a zero ttl.
	TTL time.Duration
}

// RedisCache implements Cache backed by Redis, suitable for multi-instance
// deployments behind a load balancer.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}

	slog.Info("redis cache connected", "prefix", prefix, "ttl", ttl)

	return &RedisCache{client: client, prefix: prefix, ttl: ttl}, nil
}

// Get retrieves the value stored under key, or nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return data, nil
}

// Set stores value under key with the given ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
