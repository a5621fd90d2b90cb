// Package cache stores computed settlement summaries in Redis.
//
// Entries are keyed by a generation counter. Any ledger write bumps the
// generation so stale summaries are never read again and simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"settlement-engine/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// SummaryCache is the read-through cache used by the settlement service.
type SummaryCache interface {
	// Get decodes the value stored under key at the current generation into
	// dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Invalidate moves to a new generation.
	Invalidate(ctx context.Context) error
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.Addr, err)
	}
	return client, nil
}

type redisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewSummaryCache(client redis.Cmdable, prefix string, ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *redisCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *redisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cache generation: %w", err)
	}
	return gen, nil
}

func (c *redisCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return c.prefix + ":summary:" + strconv.FormatInt(gen, 10) + ":" + key, nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	k, err := c.key(ctx, key)
	if err != nil {
		return false, err
	}

	raw, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", k, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", k, err)
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any) error {
	k, err := c.key(ctx, key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return c.client.Set(ctx, k, raw, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}

type noopCache struct{}

// NewNoop is used when Redis is not configured. Every read misses.
func NewNoop() SummaryCache { return noopCache{} }

func (noopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopCache) Set(context.Context, string, any) error         { return nil }
func (noopCache) Invalidate(context.Context) error               { return nil }
