package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCacheTTL bounds staleness if an invalidation is ever missed.
	DefaultCacheTTL = time.Hour

	tagKeyPrefix = "tag:"
)

// TagCache is a key/value cache whose entries can be grouped under tags.
// Flushing a tag evicts every entry ever written under it. Controllers
// receive a TagCache instead of touching Redis directly.
type TagCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration, tags ...string)
	Flush(tags ...string)
}

// CacheSetJSON marshals v and stores the JSON bytes under key and tags.
func CacheSetJSON(c TagCache, key string, v interface{}, ttl time.Duration, tags ...string) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(key, b, ttl, tags...)
}

// redisTagCache keeps value keys with their own TTL plus a Redis set per
// tag recording which keys were written under it.
type redisTagCache struct {
	rc *redis.Client
}

// NewRedisTagCache wraps a Redis client in the TagCache capability.
func NewRedisTagCache(rc *redis.Client) TagCache {
	return &redisTagCache{rc: rc}
}

func (c *redisTagCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (c *redisTagCache) Set(key string, value []byte, ttl time.Duration, tags ...string) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pipe := c.rc.Pipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKeyPrefix+tag, key)
		// Keep the membership set alive at least as long as its newest entry
		pipe.Expire(ctx, tagKeyPrefix+tag, 2*ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}

func (c *redisTagCache) Flush(tags ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for _, tag := range tags {
		keys, err := c.rc.SMembers(ctx, tagKeyPrefix+tag).Result()
		if err != nil {
			if Sugar != nil {
				Sugar.Warnf("cache flush failed tag=%s err=%v", tag, err)
			}
			continue
		}
		pipe := c.rc.Pipeline()
		for _, k := range keys {
			pipe.Del(ctx, k)
		}
		pipe.Del(ctx, tagKeyPrefix+tag)
		_, _ = pipe.Exec(ctx)
	}
}

// memoryTagCache is the in-process fallback used when Redis is not
// configured, and by tests.
type memoryTagCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	tags    map[string]map[string]struct{}
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryTagCache returns a mutex-guarded in-process TagCache.
func NewMemoryTagCache() TagCache {
	return &memoryTagCache{
		entries: map[string]memEntry{},
		tags:    map[string]map[string]struct{}{},
	}
}

func (c *memoryTagCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *memoryTagCache) Set(key string, value []byte, ttl time.Duration, tags ...string) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{value: value, expiresAt: time.Now().Add(ttl)}
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = map[string]struct{}{}
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (c *memoryTagCache) Flush(tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		for key := range c.tags[tag] {
			delete(c.entries, key)
		}
		delete(c.tags, tag)
	}
}
