// Package cache provides a small in-memory cache with TTL support.
package cache

import (
	"sync"
	"time"
)

// Entry represents a single cached item
type Entry[V any] struct {
	Value      V
	Expiration time.Time
}

// Cache is an in-memory cache with expiration. Expired entries are dropped
// lazily on access and by Prune.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New creates a new cache with the specified TTL
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]Entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}
	if c.now().After(entry.Expiration) {
		c.mu.Lock()
		// A Set may have replaced the entry since the read lock was dropped.
		if current, ok := c.entries[key]; ok && c.now().After(current.Expiration) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{
		Value:      value,
		Expiration: c.now().Add(ttl),
	}
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.Expiration) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

