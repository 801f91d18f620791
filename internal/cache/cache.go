package cache

import (
	"sync"
	"time"
)

// TTLStatic suits descriptor files shipped by the distribution, which change
// only on upgrade
const TTLStatic = 24 * time.Hour

// Entry holds a cached value with expiration
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
	FetchedAt time.Time
}

// IsExpired returns true if the entry has expired
func (e *Entry[V]) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache provides thread-safe TTL-based caching
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache whose entries live for ttl
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]*Entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value; ok is false if it is missing or expired
func (c *Cache[V]) Get(key string) (v V, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || entry.IsExpired(c.now()) {
		return v, false
	}
	return entry.Value, true
}

// Set stores a value with the cache TTL
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &Entry[V]{
		Value:     value,
		ExpiresAt: now.Add(c.ttl),
		FetchedAt: now,
	}
}

// GetOrLoad returns the cached value or stores and returns load(key)
func (c *Cache[V]) GetOrLoad(key string, load func(string) V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := load(key)
	c.Set(key, v)
	return v
}
