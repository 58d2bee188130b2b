package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 6 * time.Hour

	scanBatch   = 200
	deleteBatch = 500
)

// Client is the Redis JSON store behind the factor-score cache
type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient dials addr and pings it once so a bad address fails at
// startup instead of on the first analysis. ttl <= 0 means six hours.
func NewClient(ctx context.Context, addr, password string, ttl time.Duration) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr missing")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger := slog.Default().With("component", "score_cache")
	logger.Info("redis connected", "addr", addr, "ttl", ttl)
	return &Client{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// HealthCheck is wired into /healthz
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get decodes the value at key into target. A miss is (false, nil).
func (c *Client) Get(ctx context.Context, key string, target any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	c.logger.Debug("cache hit", "key", key)
	return true, nil
}

// Set stores value as JSON with the client's TTL
func (c *Client) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Count returns how many keys match a glob pattern
func (c *Client) Count(ctx context.Context, pattern string) (int, error) {
	n := 0
	err := c.scan(ctx, pattern, func(keys []string) error {
		n += len(keys)
		return nil
	})
	return n, err
}

// DeletePattern removes every key matching a glob pattern and reports
// how many were deleted
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var (
		deleted int64
		pending []string
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		n, err := c.rdb.Del(ctx, pending...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += n
		pending = pending[:0]
		return nil
	}

	err := c.scan(ctx, pattern, func(keys []string) error {
		pending = append(pending, keys...)
		if len(pending) >= deleteBatch {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return deleted, err
	}

	c.logger.Info("cache flushed", "pattern", pattern, "deleted", deleted)
	return deleted, nil
}

// scan walks the keyspace with SCAN so large caches never block the server
func (c *Client) scan(ctx context.Context, pattern string, fn func([]string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
