// Package cache provides the in-memory TTL cache for fetched source payloads.
// It uses patrickmn/go-cache for expiry and periodic cleanup.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/agoraflux/pkg/dataset"
)

// Cache stores raw payloads keyed by source.
type Cache struct {
	store *gocache.Cache
}

// New creates a new cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns the cached payload for a source.
func (c *Cache) Get(source string) (*dataset.Payload, bool) {
	v, ok := c.store.Get(source)
	if !ok {
		return nil, false
	}
	p, ok := v.(*dataset.Payload)
	return p, ok
}

// Set stores a payload with the default TTL. Failed payloads are never cached.
func (c *Cache) Set(source string, p *dataset.Payload) {
	if p.Failed() {
		return
	}
	c.store.Set(source, p, gocache.DefaultExpiration)
}

// Delete removes a cached payload.
func (c *Cache) Delete(source string) {
	c.store.Delete(source)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
