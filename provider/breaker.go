package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/pagetl"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures a BreakerProvider.
type BreakerConfig struct {
	Name        string        // breaker name in logs (default: "translate")
	MaxFailures uint32        // consecutive failures that open the breaker (default: 5)
	OpenTimeout time.Duration // how long the breaker stays open (default: 30s)
	Logger      *slog.Logger
}

// BreakerProvider stops calling a failing backend for a while. While open,
// calls fail fast with a non-retryable ProviderError, so the scheduler marks
// the batch failed and moves on without waiting for timeouts.
type BreakerProvider struct {
	provider AIProvider
	cb       *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps provider with a circuit breaker.
func NewBreakerProvider(provider AIProvider, cfg BreakerConfig) *BreakerProvider {
	if cfg.Name == "" {
		cfg.Name = "translate"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxFailures := cfg.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a cancelled caller says nothing about the backend
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("pagetl: circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &BreakerProvider{provider: provider, cb: cb}
}

// Translate calls the wrapped provider unless the breaker is open.
func (p *BreakerProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.provider.Translate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &pagetl.ProviderError{Message: "backend unavailable", Cause: err}
	}
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// State returns the breaker state ("closed", "half-open" or "open").
func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}

// Verify BreakerProvider implements AIProvider
var _ AIProvider = (*BreakerProvider)(nil)
