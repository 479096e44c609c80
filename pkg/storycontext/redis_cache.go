package storycontext

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-novelwriter-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisCacheModule = "ContextCache"
	redisKeyPrefix   = "storyctx:"
)

// RedisContextCache shares snapshots between API instances. Redis failures are
// logged and treated as cache misses.
type RedisContextCache struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.ILogger
}

func NewRedisContextCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisContextCache {
	return &RedisContextCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisContextCache) Get(ctx context.Context, key string) (*Snapshot, bool) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn(redisCacheModule, "Redis get failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.log.Warn(redisCacheModule, "Dropping unreadable cached snapshot", map[string]interface{}{"key": key, "error": err.Error()})
		c.rdb.Del(ctx, redisKeyPrefix+key)
		return nil, false
	}
	return &snapshot, true
}

func (c *RedisContextCache) Set(ctx context.Context, key string, snapshot *Snapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		c.log.Error(redisCacheModule, "Failed to encode snapshot", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	// A zero ttl means no expiration in go-redis.
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn(redisCacheModule, "Redis set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *RedisContextCache) deleteMatching(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn(redisCacheModule, "Redis scan failed", map[string]interface{}{"pattern": pattern, "error": err.Error()})
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn(redisCacheModule, "Redis delete failed", map[string]interface{}{"pattern": pattern, "error": err.Error()})
	}
}

func (c *RedisContextCache) Invalidate(ctx context.Context, projectId uuid.UUID) {
	c.deleteMatching(ctx, redisKeyPrefix+projectPrefix(projectId)+"*")
}

func (c *RedisContextCache) Clear(ctx context.Context) {
	c.deleteMatching(ctx, redisKeyPrefix+"*")
}
