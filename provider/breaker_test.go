package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/pagetl"
	"github.com/sony/gobreaker"
)

func TestBreakerProvider_PassThrough(t *testing.T) {
	mock := NewMockProvider()
	p := NewBreakerProvider(mock, BreakerConfig{})

	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}, TargetLang: "es"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got[0] != "Hola" {
		t.Errorf("Expected 'Hola', got %q", got[0])
	}
	if p.State() != "closed" {
		t.Errorf("Expected closed breaker, got %s", p.State())
	}
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	backendErr := &pagetl.ProviderError{Message: "down", Retryable: true}
	mock := NewMockProvider()
	mock.Err = backendErr

	p := NewBreakerProvider(mock, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute})
	req := TranslateRequest{Texts: []string{"Hello"}, TargetLang: "es"}

	for i := 0; i < 2; i++ {
		if _, err := p.Translate(context.Background(), req); !errors.Is(err, backendErr) {
			t.Fatalf("call %d: expected backend error, got %v", i, err)
		}
	}
	if p.State() != "open" {
		t.Fatalf("Expected open breaker, got %s", p.State())
	}

	_, err := p.Translate(context.Background(), req)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}
	var perr *pagetl.ProviderError
	if !errors.As(err, &perr) || perr.Retryable {
		t.Errorf("Expected non-retryable ProviderError, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("Open breaker should not reach the backend, got %d calls", mock.CallCount())
	}
}

func TestBreakerProvider_CancelDoesNotTrip(t *testing.T) {
	mock := NewMockProvider()
	mock.Err = context.Canceled

	p := NewBreakerProvider(mock, BreakerConfig{MaxFailures: 1})
	p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}})
	p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}})

	if p.State() != "closed" {
		t.Errorf("Cancellations should not open the breaker, got %s", p.State())
	}
}
