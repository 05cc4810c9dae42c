package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores solve results in Redis. This is the backend for shared
// server deployments where several instances answer for the same content.
type RedisCache struct {
	client *redis.Client
}

// Transient-failure retry policy for Redis round trips. The delays stay
// short: a cache that is down should degrade to solving, not stall the
// request behind it.
const (
	redisRetryAttempts = 3
	redisRetryBaseWait = 50 * time.Millisecond
)

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// transient classifies a Redis error for retry purposes. Context errors
// pass through untouched so cancellation is never retried; everything else
// is treated as a transient backend failure.
func transient(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
}

// Get retrieves a value from Redis, retrying transient failures.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := RetryWithBackoff(ctx, redisRetryAttempts, redisRetryBaseWait, func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			data, found = nil, false
			return nil
		}
		if err != nil {
			return transient(err)
		}
		data, found = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, found, nil
}

// Set stores a value in Redis, retrying transient failures.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return RetryWithBackoff(ctx, redisRetryAttempts, redisRetryBaseWait, func() error {
		if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
			return transient(err)
		}
		return nil
	})
}

// Delete removes a value from Redis, retrying transient failures.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return RetryWithBackoff(ctx, redisRetryAttempts, redisRetryBaseWait, func() error {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return transient(err)
		}
		return nil
	})
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
