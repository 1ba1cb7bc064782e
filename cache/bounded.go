package cache

import "sync"

// Bounded is a capacity-capped memo. Once full, new keys are dropped rather
// than evicting old ones; existing keys can still be overwritten. It is a
// best-effort store: callers must tolerate misses and must Clear or Delete
// entries themselves when the underlying data changes.
type Bounded[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]V
	capacity int
}

// NewBounded creates a Bounded cache holding at most capacity entries.
// A capacity of 0 or less means the cache stores nothing.
func NewBounded[K comparable, V any](capacity int) *Bounded[K, V] {
	return &Bounded[K, V]{
		entries:  make(map[K]V),
		capacity: capacity,
	}
}

// Get returns the value stored for key.
func (b *Bounded[K, V]) Get(key K) (V, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.entries[key]
	return v, ok
}

// Put stores value under key. It reports false when the cache is full and
// key is not already present.
func (b *Bounded[K, V]) Put(key K, value V) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.entries[key]; !exists && len(b.entries) >= b.capacity {
		return false
	}
	b.entries[key] = value
	return true
}

// Delete removes key.
func (b *Bounded[K, V]) Delete(key K) {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
}

// Clear removes every entry.
func (b *Bounded[K, V]) Clear() {
	b.mu.Lock()
	b.entries = make(map[K]V)
	b.mu.Unlock()
}

// Len returns the number of stored entries.
func (b *Bounded[K, V]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Capacity returns the configured maximum.
func (b *Bounded[K, V]) Capacity() int {
	return b.capacity
}
