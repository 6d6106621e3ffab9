// Package cache provides an in-process L1 cache backed by ristretto.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is a typed, TTL-aware cache. Every entry costs one unit, so maxItems
// bounds the number of entries rather than their size.
type Cache[V any] struct {
	c *ristretto.Cache[string, V]
}

// New creates a cache holding up to maxItems entries.
func New[V any](maxItems int64) (*Cache[V], error) {
	if maxItems < 1 {
		maxItems = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
		// costs count entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[V]{c: c}, nil
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.c.Get(key)
}

// Set stores value under key for ttl and waits until it is visible to Get.
// A zero ttl never expires.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.c.SetWithTTL(key, value, 1, ttl)
	c.c.Wait()
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.c.Del(key)
}

// Close releases the cache's background goroutines.
func (c *Cache[V]) Close() {
	c.c.Close()
}
