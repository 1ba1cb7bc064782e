package pagetl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

var fastRetry = RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

var (
	errThrottled = &ProviderError{Message: "429", StatusCode: 429, Retryable: true}
	errBadKey    = &ProviderError{Message: "401", StatusCode: 401}
	errShortBack = &CountMismatchError{Expected: 3, Got: 2}
)

// scriptedProvider fails with script[i] on call i and succeeds once the
// script runs out.
type scriptedProvider struct {
	mu     sync.Mutex
	script []error
	calls  int
}

func (p *scriptedProvider) Translate(_ context.Context, req TranslateRequest) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= len(p.script) {
		return nil, p.script[p.calls-1]
	}
	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = strings.ToUpper(text)
	}
	return out, nil
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		script    []error
		retries   int
		wantCalls int
		wantErr   error
	}{
		{"first try", nil, 3, 1, nil},
		{"throttled twice", []error{errThrottled, errThrottled}, 3, 3, nil},
		{"merged strings", []error{errShortBack}, 3, 2, nil},
		{"bad key is final", []error{errBadKey, errThrottled}, 3, 1, errBadKey},
		{"plain error is final", []error{errors.New("boom")}, 3, 1, nil},
		{"out of attempts", []error{errThrottled, errThrottled, errThrottled}, 2, 3, errThrottled},
		{"no retries", []error{errThrottled}, 0, 1, errThrottled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{script: tt.script}
			cfg := fastRetry
			cfg.MaxRetries = tt.retries

			got, err := WithRetry(context.Background(), cfg, func() ([]string, error) {
				return p.Translate(context.Background(), TranslateRequest{Texts: []string{"hola"}})
			})

			if p.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", p.calls, tt.wantCalls)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (len(got) != 1 || got[0] != "HOLA") {
				t.Errorf("unexpected result %v", got)
			}
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	calls := 0
	time.AfterFunc(20*time.Millisecond, cancel)
	start := time.Now()
	_, err := WithRetry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errThrottled
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("backoff wait should end with the context")
	}

	// an already-cancelled context never calls fn
	calls = 0
	WithRetry(ctx, cfg, func() (int, error) { calls++; return 0, nil })
	if calls != 0 {
		t.Error("fn called with a done context")
	}
}

func TestWithRetry_LogsAttempts(t *testing.T) {
	var buf bytes.Buffer
	cfg := fastRetry
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := &scriptedProvider{script: []error{errThrottled, errShortBack}}
	if _, err := NewRetryableProvider(p, cfg).Translate(context.Background(), TranslateRequest{Texts: []string{"a"}}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if n := strings.Count(out, "retrying translation call"); n != 2 {
		t.Errorf("expected 2 retry lines, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "attempt=1") || !strings.Contains(out, "attempt=2") {
		t.Errorf("attempt numbers missing:\n%s", out)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errThrottled, true},
		{errBadKey, false},
		{errShortBack, true},
		{errors.New("boom"), false},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{&BatchError{Cause: errThrottled}, true},
		{&ProviderError{Message: "timeout", Cause: context.DeadlineExceeded, Retryable: true}, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 2 {
		t.Errorf("default MaxRetries = %d, want 2", cfg.MaxRetries)
	}

	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for attempt, w := range want {
		if got := cfg.backoff(attempt); got != w {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, w)
		}
	}

	// shifting far enough overflows; the cap still applies
	if got := cfg.backoff(80); got != cfg.MaxDelay {
		t.Errorf("backoff(80) = %v, want %v", got, cfg.MaxDelay)
	}
}
