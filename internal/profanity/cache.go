package profanity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL      = time.Hour
	DefaultRedisKey = "crna-fit:profanity:words"
)

// Cache stores the loaded word list. Get reports false when nothing fresh is stored.
type Cache interface {
	Get(ctx context.Context) ([]string, bool, error)
	Set(ctx context.Context, words []string) error
}

// MemoryCache keeps the list in process until expiresAt.
type MemoryCache struct {
	mu        sync.RWMutex
	value     []string
	expiresAt time.Time

	ttl time.Duration
	now func() time.Time
}

// NewMemoryCache returns an empty cache. A nil clock means time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{ttl: ttl, now: now}
}

func (c *MemoryCache) Get(context.Context) ([]string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	return c.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, words []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = append([]string(nil), words...)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// ExpiresAt reports when the current value goes stale.
func (c *MemoryCache) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

// RedisCache shares the list between processes; expiry is delegated to the key TTL.
type RedisCache struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, key string, ttl time.Duration) *RedisCache {
	if key = strings.TrimSpace(key); key == "" {
		key = DefaultRedisKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, key: key, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) ([]string, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.key, err)
	}

	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, false, fmt.Errorf("decode cached words: %w", err)
	}
	return words, true, nil
}

func (c *RedisCache) Set(ctx context.Context, words []string) error {
	data, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode words: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}
