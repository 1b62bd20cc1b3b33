package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/meetbasket/metrics"
)

// Entry describes where a value lives in the cache and what invalidates it.
type Entry struct {
	Key  string
	TTL  time.Duration
	Tags []string
}

// Cache layers value encoding, metrics and failure tolerance over a Store.
// A failing store never fails a request: reads fall through to the loader.
type Cache struct {
	store   Store
	metrics metrics.Metrics
	logger  *slog.Logger
}

func New(store Store, m metrics.Metrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, metrics: m, logger: logger}
}

// Invalidate drops every entry carrying one of tags.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	return c.store.InvalidateTags(ctx, tags...)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.store.Delete(ctx, keys...)
}

// GetOrLoad returns the cached value for e.Key, or calls load on a miss and
// caches its result. Loader errors are returned and never cached.
// On a miss the caller gets the stored encoding decoded back, so a later hit
// returns exactly the same value. A nil cache always calls load.
func GetOrLoad[T any](ctx context.Context, c *Cache, e Entry, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	ns := namespace(e.Key)

	raw, ok, err := c.store.Get(ctx, e.Key)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", slog.String("key", e.Key), slog.Any("error", err))
	}
	if ok {
		cached, decErr := decode[T](raw)
		if decErr == nil {
			c.hit(ns)
			return cached, nil
		}
		c.logger.WarnContext(ctx, "cache entry undecodable", slog.String("key", e.Key), slog.Any("error", decErr))
	}
	c.miss(ns)

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, err := encode(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", slog.String("key", e.Key), slog.Any("error", err))
		return value, nil
	}
	if err := c.store.Set(ctx, e.Key, encoded, e.TTL, e.Tags...); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.String("key", e.Key), slog.Any("error", err))
	}
	stored, err := decode[T](encoded)
	if err != nil {
		return value, nil
	}
	return stored, nil
}

func (c *Cache) hit(ns string) {
	if c.metrics != nil {
		c.metrics.IncCacheHit(ns)
	}
}

func (c *Cache) miss(ns string) {
	if c.metrics != nil {
		c.metrics.IncCacheMiss(ns)
	}
}

func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
