package storycontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ContextCache keeps recently extracted snapshots. Entries are dropped by
// Invalidate or Clear; a TTL, if any, is a property of the implementation.
type ContextCache interface {
	Get(ctx context.Context, key string) (*Snapshot, bool)
	Set(ctx context.Context, key string, snapshot *Snapshot)
	Invalidate(ctx context.Context, projectId uuid.UUID)
	Clear(ctx context.Context)
}

// CacheKey identifies a snapshot by project and the options that shaped it.
func CacheKey(projectId uuid.UUID, opts ExtractOptions) string {
	opts = opts.withDefaults()
	return fmt.Sprintf("%s:%t:%t:%t:%t:%d:%d:%d:%d:%d",
		projectId,
		opts.IncludeCharacters,
		opts.IncludeWorldBuilding,
		opts.IncludeTimeline,
		opts.IncludeChapters,
		opts.MaxTokens,
		opts.MaxCharacters,
		opts.MaxWorldEntries,
		opts.MaxTimelineEvents,
		opts.RecentChapters,
	)
}

func projectPrefix(projectId uuid.UUID) string {
	return projectId.String() + ":"
}

type MemoryContextCache struct {
	cache *cache.Cache
}

// NewMemoryContextCache keeps entries for ttl; ttl <= 0 keeps them until invalidated.
func NewMemoryContextCache(ttl time.Duration) *MemoryContextCache {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &MemoryContextCache{cache: cache.New(expiration, cleanup)}
}

func (c *MemoryContextCache) Get(_ context.Context, key string) (*Snapshot, bool) {
	if x, found := c.cache.Get(key); found {
		return x.(*Snapshot).clone(), true
	}
	return nil, false
}

func (c *MemoryContextCache) Set(_ context.Context, key string, snapshot *Snapshot) {
	c.cache.Set(key, snapshot.clone(), cache.DefaultExpiration)
}

func (c *MemoryContextCache) Invalidate(_ context.Context, projectId uuid.UUID) {
	prefix := projectPrefix(projectId)
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *MemoryContextCache) Clear(_ context.Context) {
	c.cache.Flush()
}
