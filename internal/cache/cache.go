// Package cache provides a TTL cache with an injectable clock and pluggable backing stores.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// Entry is a stored value together with the moment it was stored.
type Entry[V any] struct {
	StoredAt time.Time `json:"stored_at"`
	Value    V         `json:"value"`
}

// Store is a backing store for cache entries. Implementations do not judge freshness.
type Store[V any] interface {
	Load(ctx context.Context, key string) (Entry[V], bool, error)
	Save(ctx context.Context, key string, entry Entry[V]) error
}

type options struct {
	clock Clock
}

// Option configures a TTLCache.
type Option func(*options)

// WithClock overrides the time source used for storing and expiring entries.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// TTLCache returns stored values only while they are younger than its TTL.
// Stale entries are not purged; they are overwritten on the next Set.
type TTLCache[V any] struct {
	store Store[V]
	now   Clock
	ttl   time.Duration
}

// New creates a TTL cache over store.
func New[V any](store Store[V], ttl time.Duration, opts ...Option) *TTLCache[V] {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &TTLCache[V]{
		store: store,
		ttl:   ttl,
		now:   o.clock,
	}
}

// Get returns the value for key and the time it was stored, if present and fresh.
// Store errors are treated as misses.
func (c *TTLCache[V]) Get(ctx context.Context, key string) (V, time.Time, bool) {
	var zero V

	entry, ok, err := c.store.Load(ctx, key)
	if err != nil {
		slog.Debug("Cache load failed, treating as miss", "key", key, "error", err)
		return zero, time.Time{}, false
	}
	if !ok {
		return zero, time.Time{}, false
	}

	if c.now().Sub(entry.StoredAt) >= c.ttl {
		return zero, time.Time{}, false
	}

	return entry.Value, entry.StoredAt, true
}

// Set stores value under key, stamped with the current time.
func (c *TTLCache[V]) Set(ctx context.Context, key string, value V) error {
	return c.store.Save(ctx, key, Entry[V]{
		StoredAt: c.now(),
		Value:    value,
	})
}

// TTL returns the configured time to live.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Now returns the cache clock's current time.
func (c *TTLCache[V]) Now() time.Time {
	return c.now()
}
