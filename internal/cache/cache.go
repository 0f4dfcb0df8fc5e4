// Package cache memoizes stream resolutions per remote track id.
//
// Concurrent lookups for the same id collapse into a single call of the resolve
// function; lookups for different ids run in parallel. Only successes are stored.
package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/metrics"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"golang.org/x/sync/singleflight"
)

// ResolveFunc produces the descriptor for id on a cache miss.
type ResolveFunc func(ctx context.Context, id models.RemoteTrackID) (models.StreamDescriptor, error)

// Cache is the single-flight resolution cache.
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *log.Logger
}

// New creates a Cache on top of store. A nil store is replaced with an unbounded, non-expiring [LRUStore].
func New(store Store, logger *log.Logger) *Cache {
	if store == nil {
		store = NewLRUStore(0, 0)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{store: store, logger: logger.WithPrefix("cache")}
}

// NewFromConfig creates a Cache with an [LRUStore] sized from cfg.
func NewFromConfig(cfg shared.CacheConfig, logger *log.Logger) *Cache {
	return New(NewLRUStore(cfg.MaxEntries, cfg.TTL.Duration), logger)
}

// GetOrResolve returns the cached descriptor for id or resolves it with fn.
//
// Callers arriving while a resolution for id is in flight wait for that result
// instead of calling fn again. If ctx is done first GetOrResolve returns ctx.Err(),
// but the in-flight resolution keeps running and still populates the cache.
func (c *Cache) GetOrResolve(ctx context.Context, id models.RemoteTrackID, fn ResolveFunc) (models.StreamDescriptor, error) {
	if desc, ok := c.store.Get(id); ok {
		metrics.CacheHitsTotal.Inc()
		return desc, nil
	}
	metrics.CacheMissesTotal.Inc()

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(id), func() (any, error) {
		// another flight may have stored id between our lookup and this one starting
		if desc, ok := c.store.Get(id); ok {
			return desc, nil
		}

		c.logger.Debug("resolving", "id", id)
		desc, err := fn(flightCtx, id)
		if err != nil {
			return nil, err
		}

		c.store.Add(id, desc)
		metrics.CacheEntries.Set(float64(c.store.Len()))
		return desc, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.CacheSharedTotal.Inc()
		}
		if res.Err != nil {
			return models.StreamDescriptor{}, res.Err
		}
		return res.Val.(models.StreamDescriptor), nil
	case <-ctx.Done():
		c.logger.Debug("caller gave up waiting", "id", id, "error", ctx.Err())
		return models.StreamDescriptor{}, ctx.Err()
	}
}

// Peek returns the cached descriptor for id without resolving.
func (c *Cache) Peek(id models.RemoteTrackID) (models.StreamDescriptor, bool) {
	return c.store.Get(id)
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int { return c.store.Len() }

// Invalidate drops the cached descriptor for id, forcing the next lookup to resolve again.
func (c *Cache) Invalidate(id models.RemoteTrackID) bool {
	ok := c.store.Remove(id)
	metrics.CacheEntries.Set(float64(c.store.Len()))
	return ok
}

// Purge drops every cached descriptor.
func (c *Cache) Purge() {
	c.store.Purge()
	metrics.CacheEntries.Set(0)
}
