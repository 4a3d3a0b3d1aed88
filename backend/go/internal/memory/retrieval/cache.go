package retrieval

import (
	"Mnemos/backend/go/pkg/util"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache holds the per-user active-facts view so conversational reads do
// not hit the store on every turn. The orchestrator drops a user's entry
// after any write for that user.
type Cache interface {
	Get(ctx context.Context, userID string) (map[string][]string, bool)
	Set(ctx context.Context, userID string, facts map[string][]string)
	Drop(ctx context.Context, userID string)
}

// RedisCache stores the active view in Redis, shared across service
// instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache with the given entry TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(userID string) string {
	return fmt.Sprintf("mnemos:facts:active:%s", userID)
}

// Get returns the cached view for a user. Any Redis or decode failure is
// treated as a miss.
func (c *RedisCache) Get(ctx context.Context, userID string) (map[string][]string, bool) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var facts map[string][]string
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, false
	}
	return facts, true
}

// Set stores the view for a user. Failures are ignored; the cache is an
// optimization, never a source of truth.
func (c *RedisCache) Set(ctx context.Context, userID string, facts map[string][]string) {
	data, err := json.Marshal(facts)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(userID), data, c.ttl)
}

// Drop removes the view for a user.
func (c *RedisCache) Drop(ctx context.Context, userID string) {
	c.client.Del(ctx, c.key(userID))
}

// LocalCache is the in-process fallback used when Redis is not
// configured, backed by a TTL'd LRU.
type LocalCache struct {
	lru *util.LRUCache[string, map[string][]string]
}

// NewLocalCache creates a LocalCache holding up to capacity users.
func NewLocalCache(capacity int, ttl time.Duration) (*LocalCache, error) {
	lru, err := util.NewLRUCache[string, map[string][]string](capacity, ttl)
	if err != nil {
		return nil, err
	}
	return &LocalCache{lru: lru}, nil
}

// Get returns the cached view for a user.
func (c *LocalCache) Get(ctx context.Context, userID string) (map[string][]string, bool) {
	return c.lru.Get(userID)
}

// Set stores the view for a user.
func (c *LocalCache) Set(ctx context.Context, userID string, facts map[string][]string) {
	c.lru.Put(userID, facts)
}

// Drop removes the view for a user.
func (c *LocalCache) Drop(ctx context.Context, userID string) {
	c.lru.Remove(userID)
}
