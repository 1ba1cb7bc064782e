package pagetl

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiter_FirstCallImmediate(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Interval: time.Second})

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("First Wait should not block, took %v", elapsed)
	}
}

func TestRateLimiter_SpacesCalls(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Interval: 40 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Three calls should span two intervals, took %v", elapsed)
	}
}

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 600})
	if rl.Interval() != 100*time.Millisecond {
		t.Errorf("Expected 100ms interval, got %v", rl.Interval())
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})

	start := time.Now()
	for i := 0; i < 100; i++ {
		rl.Wait(context.Background())
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Unconfigured limiter should never wait, took %v", elapsed)
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Interval: time.Minute})
	rl.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("Expected error when context cancelled")
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Interval: 10 * time.Millisecond})

	var (
		wg    sync.WaitGroup
		count int64
	)
	start := time.Now()
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Wait(context.Background()) == nil {
				atomic.AddInt64(&count, 1)
			}
		}()
	}
	wg.Wait()

	if count != 5 {
		t.Errorf("Expected 5 acquisitions, got %d", count)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Five concurrent waiters should queue over four intervals, took %v", elapsed)
	}
}

func TestRateLimitedProvider(t *testing.T) {
	inner := &mockProviderForRateLimit{response: []string{"translated"}}
	provider := NewRateLimitedProvider(inner, RateLimitConfig{Interval: 60 * time.Millisecond})
	ctx := context.Background()

	if _, err := provider.Translate(ctx, TranslateRequest{Texts: []string{"a"}}); err != nil {
		t.Errorf("First translate failed: %v", err)
	}

	start := time.Now()
	if _, err := provider.Translate(ctx, TranslateRequest{Texts: []string{"b"}}); err != nil {
		t.Errorf("Second translate failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Expected rate limit wait, but returned in %v", elapsed)
	}
	if inner.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", inner.calls)
	}
}

func TestRateLimitedProvider_ContextCancelled(t *testing.T) {
	inner := &mockProviderForRateLimit{response: []string{"translated"}}
	provider := NewRateLimitedProvider(inner, RateLimitConfig{RequestsPerMinute: 1})

	provider.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := provider.Translate(ctx, TranslateRequest{Texts: []string{"b"}})
	if err == nil {
		t.Error("Expected error when context cancelled")
	}
	if inner.calls != 1 {
		t.Errorf("Cancelled call should not reach the provider, got %d calls", inner.calls)
	}
}

// Mock provider for rate limit tests
type mockProviderForRateLimit struct {
	response []string
	calls    int
}

func (m *mockProviderForRateLimit) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.calls++
	return m.response, nil
}
