package cache

import (
	"context"
	"time"
)

// Store is a keyed byte store with per-entry TTL and tag membership.
// Implementations must never return an entry after its TTL has elapsed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	Delete(ctx context.Context, keys ...string) error
	InvalidateTags(ctx context.Context, tags ...string) error
}
