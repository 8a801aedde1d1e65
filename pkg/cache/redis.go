package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	// URL is a redis:// or rediss:// URL. It takes precedence over Addr.
	URL      string
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key, e.g. "cifra:".
	Prefix string

	// Backoff controls the connection check. Zero means DefaultBackoff.
	Backoff Backoff
}

// RedisCache stores entries in Redis, sharing them between server instances.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and checks the connection with PING,
// retrying with backoff.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	var ro *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		ro = parsed
	} else {
		ro = &redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
	}

	c := NewRedisCacheFromClient(redis.NewClient(ro), opts.Prefix)

	backoff := opts.Backoff
	if backoff.Attempts == 0 {
		backoff = DefaultBackoff
	}
	err := backoff.Do(ctx, func() error {
		if err := c.client.Ping(ctx).Err(); err != nil {
			return Retryable(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		return nil
	})
	if err != nil {
		c.client.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client without checking it.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves a value. redis.Nil is a miss; other failures are returned
// as retryable errors so callers can degrade to a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Retryable(err)
	}
	return data, true, nil
}

// Set stores a value with the given TTL (zero keeps it forever).
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return Retryable(err)
	}
	return nil
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return Retryable(err)
	}
	return nil
}

// Clear deletes every key under the cache prefix and returns how many were
// removed. A cache without a prefix refuses to clear.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	if c.prefix == "" {
		return 0, errors.New("refusing to clear a redis cache without a key prefix")
	}
	const batchSize = 500
	n := 0
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		deleted, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return Retryable(err)
		}
		n += int(deleted)
		batch = batch[:0]
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"*", batchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return n, Retryable(err)
	}
	return n, flush()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
