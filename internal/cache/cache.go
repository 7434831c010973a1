// Package cache provides generic caching utilities
package cache

import (
	"sync"
	"time"
)

// Cache represents a generic in-memory cache
type Cache[K comparable, V any] struct {
	items      map[K]*Item[V]
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
}

// Item represents a cached item with expiration
type Item[V any] struct {
	Value     V
	ExpiresAt time.Time
	LastUsed  time.Time
}

// NewCache creates a new cache instance
func NewCache[K comparable, V any](defaultTTL time.Duration, maxSize int) *Cache[K, V] {
	return &Cache[K, V]{
		items:      make(map[K]*Item[V]),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
	}
}

// Set stores a value in the cache with default TTL
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value in the cache with custom TTL
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Check if we need to evict items
	if len(c.items) >= c.maxSize {
		c.evictLRU()
	}

	now := time.Now()
	c.items[key] = &Item[V]{
		Value:     value,
		ExpiresAt: now.Add(ttl),
		LastUsed:  now,
	}
}

// Get retrieves a value from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item, exists := c.items[key]
	if !exists {
		var zero V
		return zero, false
	}

	// Check if expired
	if time.Now().After(item.ExpiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}

	// Update last used time
	item.LastUsed = time.Now()

	return item.Value, true
}

// Delete removes a value from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[K]*Item[V])
}

// Size returns the number of items in the cache
func (c *Cache[K, V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// Has checks if a key exists in the cache
func (c *Cache[K, V]) Has(key K) bool {
	_, exists := c.Get(key)
	return exists
}

// evictLRU removes the least recently used item
func (c *Cache[K, V]) evictLRU() {
	var oldestKey K
	var oldestTime time.Time
	first := true

	for key, item := range c.items {
		if first || item.LastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.LastUsed
			first = false
		}
	}

	if !first {
		delete(c.items, oldestKey)
	}
}
