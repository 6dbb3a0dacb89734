package cache

import (
	"context"
	"log/slog"
	"time"

	"inkpost/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	tagsKey   = "inkpost:tags"
	tagsCache = "tags"
)

// TagCache caches the set of tags used across all posts. A nil client
// disables caching; Redis failures fall back to the loader.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTagCache creates a tag cache. client may be nil.
func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

// Get returns the cached tags, or calls load on a miss and caches its result.
func (c *TagCache) Get(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	var tags []string
	found, err := GetJSON(ctx, c.client, tagsKey, &tags)
	switch {
	case err != nil:
		observability.CacheRequests.WithLabelValues(tagsCache, "error").Inc()
		observability.Logger.WarnContext(ctx, "tag cache read failed", slog.String("error", err.Error()))
	case found:
		observability.CacheRequests.WithLabelValues(tagsCache, "hit").Inc()
		return tags, nil
	default:
		observability.CacheRequests.WithLabelValues(tagsCache, "miss").Inc()
	}

	tags, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := SetJSON(ctx, c.client, tagsKey, tags, c.ttl); err != nil {
		observability.Logger.WarnContext(ctx, "tag cache write failed", slog.String("error", err.Error()))
	}
	return tags, nil
}

// Invalidate drops the cached tags.
func (c *TagCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := Delete(ctx, c.client, tagsKey); err != nil {
		observability.Logger.WarnContext(ctx, "tag cache invalidation failed", slog.String("error", err.Error()))
	}
}
