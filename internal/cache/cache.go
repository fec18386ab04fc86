// Package cache is a thin read-through cache for expensive aggregate
// queries (admin stats, the best-worker leaderboard). It is optional:
// with no Redis address configured every lookup is a miss and the
// handlers fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr. An empty addr returns a disabled cache.
func New(addr string) *Cache {
	if addr == "" {
		return &Cache{}
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// Enabled reports whether a Redis backend is configured.
func (c *Cache) Enabled() bool {
	return c.rdb != nil
}

// GetJSON loads key into dest. Returns false on miss, disabled cache, or
// any Redis/unmarshal error — callers always have the DB to fall back on.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores v under key with a TTL. Errors are dropped: a failed
// cache write must never fail the request.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, raw, ttl)
}

// Invalidate removes keys after a confirmed mutation.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}
