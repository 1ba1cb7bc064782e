package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider is a deterministic provider for tests and dry runs. It is
// safe for concurrent use. Configure it before the first call.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation

	// Err, when set, fails every call.
	Err error
	// FailOn fails any call whose batch contains one of these texts.
	FailOn map[string]error
	// Empty lists texts translated to "".
	Empty map[string]bool
	// Delay is waited (or ctx, whichever ends first) before answering.
	Delay time.Duration

	mu       sync.Mutex
	requests []TranslateRequest
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Welcome to our site.": "Bienvenido a nuestro sitio.",
		},
	}
}

// Translate returns mock translations. Unknown texts come back bracketed.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if err, ok := m.FailOn[text]; ok {
			return nil, err
		}
		switch {
		case m.Empty[text]:
			results[i] = ""
		case m.Translations[text] != "":
			results[i] = m.Translations[text]
		default:
			results[i] = fmt.Sprintf("[%s]", text)
		}
	}

	return results, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received, in arrival order.
func (m *MockProvider) Requests() []TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslateRequest(nil), m.requests...)
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// Reset forgets recorded requests.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)
