package cache

import (
	"time"

	"github.com/desertthunder/ytplay/internal/metrics"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is the retention policy behind a [Cache].
//
// Implementations must be safe for concurrent use.
type Store interface {
	Get(id models.RemoteTrackID) (models.StreamDescriptor, bool)
	Add(id models.RemoteTrackID, desc models.StreamDescriptor)
	Remove(id models.RemoteTrackID) bool
	Len() int
	Purge()
}

// LRUStore is a bounded, optionally expiring [Store].
type LRUStore struct {
	lru *expirable.LRU[models.RemoteTrackID, models.StreamDescriptor]
}

// NewLRUStore creates a store holding at most maxEntries descriptors, each for at most ttl.
//
// maxEntries <= 0 means unbounded; ttl <= 0 means entries never expire.
func NewLRUStore(maxEntries int, ttl time.Duration) *LRUStore {
	if maxEntries < 0 {
		maxEntries = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	onEvict := func(models.RemoteTrackID, models.StreamDescriptor) {
		metrics.CacheEvictionsTotal.Inc()
	}
	return &LRUStore{lru: expirable.NewLRU[models.RemoteTrackID, models.StreamDescriptor](maxEntries, onEvict, ttl)}
}

// Get returns the descriptor for id, refreshing its recency.
func (s *LRUStore) Get(id models.RemoteTrackID) (models.StreamDescriptor, bool) {
	return s.lru.Get(id)
}

// Add stores desc for id, evicting the least recently used entry when full.
func (s *LRUStore) Add(id models.RemoteTrackID, desc models.StreamDescriptor) {
	s.lru.Add(id, desc)
}

// Remove drops id and reports whether it was present.
func (s *LRUStore) Remove(id models.RemoteTrackID) bool {
	return s.lru.Remove(id)
}

// Len returns the number of live entries.
func (s *LRUStore) Len() int { return s.lru.Len() }

// Purge drops every entry.
func (s *LRUStore) Purge() { s.lru.Purge() }
