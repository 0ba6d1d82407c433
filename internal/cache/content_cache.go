// Package cache keeps content item bodies close to the service.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"study-highlights/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultContentTTL = 10 * time.Minute

// RedisContentCache stores content items as JSON under per-user keys.
type RedisContentCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisContentCache connects to redisURL and checks the connection.
func NewRedisContentCache(redisURL string, ttl time.Duration) (*RedisContentCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisContentCacheWithClient(client, ttl), nil
}

// NewRedisContentCacheWithClient creates a cache from an existing Redis client
func NewRedisContentCacheWithClient(client *redis.Client, ttl time.Duration) *RedisContentCache {
	if ttl <= 0 {
		ttl = defaultContentTTL
	}
	return &RedisContentCache{
		client: client,
		prefix: "content:",
		ttl:    ttl,
	}
}

func (c *RedisContentCache) key(userID string, kind domain.ContentKind, id string) string {
	return c.prefix + userID + ":" + string(kind) + ":" + id
}

// Get returns the cached item, or ok=false on a miss.
func (c *RedisContentCache) Get(ctx context.Context, userID string, kind domain.ContentKind, id string) (*domain.ContentItem, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID, kind, id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read content cache: %w", err)
	}

	var item domain.ContentItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached content: %w", err)
	}
	return &item, true, nil
}

// Set stores item for userID with the cache TTL.
func (c *RedisContentCache) Set(ctx context.Context, userID string, item *domain.ContentItem) error {
	if item == nil {
		return nil
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID, item.Kind, item.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write content cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisContentCache) Close() error {
	return c.client.Close()
}

// NopContentCache never stores anything. It is used when no Redis URL is configured.
type NopContentCache struct{}

func (NopContentCache) Get(context.Context, string, domain.ContentKind, string) (*domain.ContentItem, bool, error) {
	return nil, false, nil
}

func (NopContentCache) Set(context.Context, string, *domain.ContentItem) error { return nil }

func (NopContentCache) Close() error { return nil }
