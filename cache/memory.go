package cache

import (
	"sync"
	"time"
)

type memEntry struct {
	value  string
	stored time.Time
}

// InMemoryCache is a process-local translation memory with an optional TTL
// and entry cap. It is safe for concurrent use.
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]memEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewInMemoryCache returns an unbounded cache whose entries live for
// ttlSeconds. Zero or negative means entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	return NewInMemoryCacheWithCapacity(ttlSeconds, 0)
}

// NewInMemoryCacheWithCapacity is NewInMemoryCache holding at most capacity
// entries (0 = unbounded). Inserting into a full cache drops expired entries
// and then, if still full, the oldest one.
func NewInMemoryCacheWithCapacity(ttlSeconds, capacity int) *InMemoryCache {
	c := &InMemoryCache{
		entries:  make(map[string]memEntry),
		capacity: max(capacity, 0),
		now:      time.Now,
	}
	if ttlSeconds > 0 {
		c.ttl = time.Duration(ttlSeconds) * time.Second
	}
	return c
}

// Get returns the translation stored under key. Expired entries are removed
// on the way out.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if c.stale(e, c.now()) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, ok := c.entries[key]; ok && c.stale(cur, c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores value under key, refreshing its age. It never fails.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.capacity > 0 && len(c.entries) >= c.capacity {
		c.evictLocked(now)
	}
	c.entries[key] = memEntry{value: value, stored: now}
	return nil
}

func (c *InMemoryCache) evictLocked(now time.Time) {
	var victim string
	var oldest time.Time
	for key, e := range c.entries {
		if c.stale(e, now) {
			delete(c.entries, key)
			continue
		}
		if victim == "" || e.stored.Before(oldest) {
			victim, oldest = key, e.stored
		}
	}
	if len(c.entries) >= c.capacity {
		delete(c.entries, victim)
	}
}

func (c *InMemoryCache) stale(e memEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.stored) > c.ttl
}

// Len counts stored entries, expired ones included until they are touched.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops everything.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]memEntry)
	c.mu.Unlock()
}

// Entries returns a copy of the live entries.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	out := make(map[string]string, len(c.entries))
	for key, e := range c.entries {
		if !c.stale(e, now) {
			out[key] = e.value
		}
	}
	return out, nil
}

var _ Enumerable = (*InMemoryCache)(nil)
