package cache

import (
	"sync"
	"testing"
)

func TestBounded_GetPut(t *testing.T) {
	b := NewBounded[string, int](2)

	if !b.Put("a", 1) {
		t.Fatal("Put into empty cache should succeed")
	}
	if v, ok := b.Get("a"); !ok || v != 1 {
		t.Errorf("Expected 1, got %d (ok=%v)", v, ok)
	}
	if _, ok := b.Get("b"); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestBounded_FullRejectsNewKeys(t *testing.T) {
	b := NewBounded[string, int](2)
	b.Put("a", 1)
	b.Put("b", 2)

	if b.Put("c", 3) {
		t.Error("Put of a new key into a full cache should fail")
	}
	if _, ok := b.Get("c"); ok {
		t.Error("Rejected key should not be stored")
	}
	if _, ok := b.Get("a"); !ok {
		t.Error("Existing entries must not be evicted")
	}
	if !b.Put("a", 10) {
		t.Error("Overwriting an existing key should succeed when full")
	}
	if v, _ := b.Get("a"); v != 10 {
		t.Errorf("Expected 10, got %d", v)
	}
}

func TestBounded_DeleteAndClear(t *testing.T) {
	b := NewBounded[int, string](3)
	b.Put(1, "x")
	b.Put(2, "y")

	b.Delete(1)
	if b.Len() != 1 {
		t.Errorf("Expected 1 entry after delete, got %d", b.Len())
	}

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Expected empty cache after clear, got %d", b.Len())
	}
	if b.Capacity() != 3 {
		t.Errorf("Expected capacity 3, got %d", b.Capacity())
	}
}

func TestBounded_Concurrent(t *testing.T) {
	b := NewBounded[int, int](50)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Put(n, n)
			b.Get(n)
		}(i)
	}
	wg.Wait()

	if b.Len() != 50 {
		t.Errorf("Expected the cache to stop at capacity 50, got %d", b.Len())
	}
}
