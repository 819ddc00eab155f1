package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Hour

// Cache stores JSON values in Redis under a key prefix with a fixed TTL.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache constructs a Cache. A zero ttl means one hour.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// key normalizes k so lookups are case-insensitive.
func (c *Cache) key(k string) string {
	return c.prefix + strings.ToLower(strings.TrimSpace(k))
}

// Get decodes the value stored under k into dst.
// It reports false, nil on a cache miss.
func (c *Cache) Get(ctx context.Context, k string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get for %s: %w", k, err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached value for %s: %w", k, err)
	}
	return true, nil
}

// Set stores v under k with the configured TTL.
func (c *Cache) Set(ctx context.Context, k string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache value for %s: %w", k, err)
	}

	if err := c.client.Set(ctx, c.key(k), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", k, err)
	}
	return nil
}
