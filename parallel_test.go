package pagetl

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// remoteMemory stands in for a networked translation memory: every Get
// costs latency, and it records how many run at once.
type remoteMemory struct {
	mu      sync.RWMutex
	data    map[string]string
	latency time.Duration

	gets     atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

func newRemoteMemory(latency time.Duration) *remoteMemory {
	return &remoteMemory{data: make(map[string]string), latency: latency}
}

func (m *remoteMemory) Get(key string) (string, bool) {
	m.gets.Add(1)
	n := m.inflight.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.latency)
	m.inflight.Add(-1)

	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *remoteMemory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func TestParallelCacheLookup(t *testing.T) {
	mem := newRemoteMemory(0)
	hello, world := HashText("Hello"), HashText("World")
	mem.Set(CacheKey(hello, "es_ES"), "Hola")
	mem.Set(CacheKey(world, "es_ES"), "Mundo")
	mem.Set(CacheKey(world, "fr_FR"), "Monde")

	hits := ParallelCacheLookup(mem, []string{hello, world, HashText("Cart"), hello}, "es_ES")

	if len(hits) != 2 || hits[hello] != "Hola" || hits[world] != "Mundo" {
		t.Errorf("unexpected hits: %v", hits)
	}
	if n := mem.gets.Load(); n != 3 {
		t.Errorf("expected 3 Gets for 3 distinct hashes, got %d", n)
	}
}

func TestParallelCacheLookup_NothingToDo(t *testing.T) {
	if hits := ParallelCacheLookup(nil, []string{"h"}, "es"); len(hits) != 0 {
		t.Errorf("nil memory returned %v", hits)
	}

	mem := newRemoteMemory(0)
	if hits := ParallelCacheLookup(mem, nil, "es"); len(hits) != 0 || mem.gets.Load() != 0 {
		t.Errorf("empty input returned %v after %d Gets", hits, mem.gets.Load())
	}
}

func TestParallelCacheLookup_BoundedFanOut(t *testing.T) {
	mem := newRemoteMemory(5 * time.Millisecond)
	hashes := make([]string, 64)
	for i := range hashes {
		hashes[i] = HashText(fmt.Sprintf("item %d", i))
		mem.Set(CacheKey(hashes[i], "de"), "x")
	}

	start := time.Now()
	hits := ParallelCacheLookup(mem, hashes, "de")
	elapsed := time.Since(start)

	if len(hits) != len(hashes) {
		t.Errorf("got %d hits, want %d", len(hits), len(hashes))
	}
	if p := mem.peak.Load(); p > maxLookupWorkers || p < 2 {
		t.Errorf("peak concurrency %d, want between 2 and %d", p, maxLookupWorkers)
	}
	// 64 sequential reads would take 320ms
	if elapsed > 200*time.Millisecond {
		t.Errorf("lookup took %v", elapsed)
	}
}

func BenchmarkParallelCacheLookup(b *testing.B) {
	mem := newRemoteMemory(0)
	hashes := make([]string, 100)
	for i := range hashes {
		hashes[i] = HashText(fmt.Sprint(i))
		mem.Set(CacheKey(hashes[i], "es_ES"), "translated")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParallelCacheLookup(mem, hashes, "es_ES")
	}
}
