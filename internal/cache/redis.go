package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "pagecache"

// RedisCache is a PageCache shared by every replica of the service.
//
// Each group carries a generation counter that is part of every key in the
// group; invalidating bumps the counter so old keys become unreachable and
// age out through their TTL.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to the server at url (redis://...) and pings it.
func NewRedisCache(ctx context.Context, url string, logger *zap.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCacheWithClient(client, logger), nil
}

// NewRedisCacheWithClient wraps an existing client. The caller keeps ownership.
func NewRedisCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger}
}

func generationKey(group string) string {
	return keyPrefix + ":gen:" + group
}

func (c *RedisCache) generation(ctx context.Context, group string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(group)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) pageKey(group string, gen int64, key string) string {
	return keyPrefix + ":" + group + ":" + strconv.FormatInt(gen, 10) + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, group, key string) (Page, bool, error) {
	gen, err := c.generation(ctx, group)
	if err != nil {
		return Page{}, false, err
	}
	data, err := c.client.Get(ctx, c.pageKey(group, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", zap.String("group", group), zap.String("key", key))
		return Page{Generation: gen}, false, nil
	}
	if err != nil {
		return Page{}, false, fmt.Errorf("failed to get page from cache: %w", err)
	}
	return Page{Data: data, Generation: gen}, true, nil
}

// Set writes under the caller's generation. After an invalidation that key
// is no longer read by Get, so a late fill is harmless and expires with ttl.
func (c *RedisCache) Set(ctx context.Context, group, key string, gen int64, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.pageKey(group, gen, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set page in cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, groups ...string) error {
	if len(groups) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, g := range groups {
		pipe.Incr(ctx, generationKey(g))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate cache groups: %w", err)
	}
	c.logger.Debug("Invalidated cache groups", zap.Strings("groups", groups))
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
