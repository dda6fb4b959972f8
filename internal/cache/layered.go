package cache

import "time"

// LayeredCache keeps a fast front cache (memory) over a durable back cache
// (disk). Hits in the back layer are promoted to the front.
//
// In refresh mode the cache is write-only: every lookup misses, and fresh
// answers replace the stored ones in the back layer.
type LayeredCache struct {
	front   Cache
	back    Cache
	refresh bool
}

// NewLayeredCache stacks front over back
func NewLayeredCache(front, back Cache) *LayeredCache {
	return &LayeredCache{front: front, back: back}
}

// NewRefreshingCache returns a write-only cache over back
func NewRefreshingCache(back Cache) *LayeredCache {
	return &LayeredCache{back: back, refresh: true}
}

// Get checks the front layer, then the back layer. A refreshing cache
// always misses.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if c.refresh {
		return nil, false
	}
	if val, found := c.front.Get(key); found {
		return val, true
	}

	val, found := c.back.Get(key)
	if !found {
		return nil, false
	}
	_ = c.front.Set(key, val, 0)
	return val, true
}

// Set writes through to both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if c.refresh {
		return c.back.Set(key, value, ttl)
	}
	if err := c.front.Set(key, value, ttl); err != nil {
		return err
	}
	return c.back.Set(key, value, ttl)
}

// Delete removes the key from both layers
func (c *LayeredCache) Delete(key string) error {
	if c.front != nil {
		_ = c.front.Delete(key)
	}
	return c.back.Delete(key)
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	if c.front != nil {
		_ = c.front.Clear()
	}
	return c.back.Clear()
}
