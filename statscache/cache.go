// statscache/cache.go
package statscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"learning-platform/config"
	"learning-platform/models"

	"github.com/redis/go-redis/v9"
)

// Cache keeps computed dashboard contexts between requests so a page
// reload does not recompute every aggregate. Entries are evicted by
// TTL and invalidated whenever progress changes.
type Cache interface {
	Get(ctx context.Context, userID int) (*models.DashboardContext, bool)
	Set(ctx context.Context, userID int, dc *models.DashboardContext)
	Invalidate(ctx context.Context, userID int)
}

// New picks the Redis backend when an address is configured and falls
// back to the in-process cache otherwise.
func New(cfg *config.Config) Cache {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		slog.Info("stats cache using redis", "addr", cfg.RedisAddr)
		return NewRedis(client, cfg.StatsCacheTTL)
	}
	return NewMemory(cfg.StatsCacheTTL)
}

type memoryEntry struct {
	dc      *models.DashboardContext
	expires time.Time
}

// MemoryCache is the default single-process backend.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int]memoryEntry
}

func NewMemory(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[int]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, userID int) (*models.DashboardContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, userID)
		return nil, false
	}
	return entry.dc, true
}

func (c *MemoryCache) Set(_ context.Context, userID int, dc *models.DashboardContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = memoryEntry{dc: dc, expires: time.Now().Add(c.ttl)}
}

func (c *MemoryCache) Invalidate(_ context.Context, userID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}

// RedisCache shares entries across processes. Values are JSON; any
// backend error degrades to a cache miss.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(userID int) string {
	return fmt.Sprintf("dashboard:%d", userID)
}

func (c *RedisCache) Get(ctx context.Context, userID int) (*models.DashboardContext, bool) {
	raw, err := c.client.Get(ctx, redisKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("stats cache get failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	var dc models.DashboardContext
	if err := json.Unmarshal(raw, &dc); err != nil {
		slog.Warn("stats cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}
	return &dc, true
}

func (c *RedisCache) Set(ctx context.Context, userID int, dc *models.DashboardContext) {
	raw, err := json.Marshal(dc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(userID), raw, c.ttl).Err(); err != nil {
		slog.Warn("stats cache set failed", "user_id", userID, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, userID int) {
	if err := c.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		slog.Warn("stats cache invalidate failed", "user_id", userID, "error", err)
	}
}
