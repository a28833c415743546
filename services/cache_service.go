package services

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CacheService is the injected query cache: redis-backed when a client is
// available, with an in-process fallback otherwise. Entries carry a TTL and
// can be invalidated by glob pattern ("leaderboard:*"). One instance per
// process, passed to the services that need it; there is no package-level
// mutable state.
type CacheService struct {
	rdb *goredis.Client
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewCacheService(rdb *goredis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheService{
		rdb:     rdb,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get unmarshals a cached value into dest. The boolean is false on miss or
// decode failure; errors are treated as misses so a flaky cache never
// breaks a request.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	var raw []byte
	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			c.countMiss()
			return false
		}
		raw = data
	} else {
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if !ok || time.Now().After(entry.expiresAt) {
			c.countMiss()
			return false
		}
		raw = entry.data
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.countMiss()
		return false
	}
	c.countHit()
	return true
}

// Set stores a value under the service TTL. Failures are silent; the cache
// is an optimization, not a source of truth.
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if c.rdb != nil {
		_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
		return
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{data: raw, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidatePattern removes every key matching a glob pattern. Redis keys
// are walked with SCAN so large keyspaces do not block the server.
func (c *CacheService) InvalidatePattern(ctx context.Context, pattern string) error {
	if c == nil {
		return nil
	}

	if c.rdb != nil {
		iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			return c.rdb.Del(ctx, keys...).Err()
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
		}
	}
	return nil
}

// Backend names the active cache backend for the monitor page.
func (c *CacheService) Backend() string {
	if c == nil {
		return "disabled"
	}
	if c.rdb != nil {
		return "redis"
	}
	return "memory"
}

// Stats reports hit/miss counters for the monitor page.
func (c *CacheService) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *CacheService) countHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *CacheService) countMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
