package task

import (
	"context"

	"mediacrawler/internal/platform/redis"
)

// RedisCache mirrors task snapshots into Redis so pollers keep a view of the
// last run across process restarts. All writes are best-effort.
type RedisCache struct{ redis *redis.Service }

func NewRedisCache(r *redis.Service) *RedisCache { return &RedisCache{redis: r} }

func (c *RedisCache) Put(ctx context.Context, t Task) {
	_ = c.redis.CacheSet(ctx, cacheKey(t.TaskID), t, cacheTTL(t.Status))
}

// Get returns the cached snapshot, if any.
func (c *RedisCache) Get(ctx context.Context, taskID string) (*Task, error) {
	var t Task
	if err := c.redis.CacheGet(ctx, cacheKey(taskID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func cacheKey(id string) string { return "task:" + id }

func cacheTTL(s Status) int {
	if s.Terminal() {
		return 3600
	}
	return 600
}
