package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZaguanLabs/pagetl"
)

// HTTPProvider sends batches to a plain JSON translation endpoint:
//
//	POST {"texts": ["Hello"], "target": "es_ES", "source": "en"}
//	200  [{"source": "Hello", "target": "Hola"}]
type HTTPProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// HTTPConfig holds configuration for the HTTP provider.
type HTTPConfig struct {
	Endpoint string        // URL the batches are posted to
	APIKey   string        // sent as a bearer token when set
	Timeout  time.Duration // client timeout (default: 30s)
	Client   *http.Client  // overrides Timeout when set
}

// NewHTTPProvider creates a new HTTP provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPProvider{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
	}
}

type httpRequest struct {
	Texts  []string `json:"texts"`
	Target string   `json:"target"`
	Source string   `json:"source,omitempty"`
}

type httpTranslation struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Translate posts one batch and returns the translations in request order.
func (p *HTTPProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	body, err := json.Marshal(httpRequest{Texts: req.Texts, Target: req.TargetLang, Source: req.SourceLang})
	if err != nil {
		return nil, &pagetl.ProviderError{Message: "encoding request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &pagetl.ProviderError{Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", pagetl.UserAgent())
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &pagetl.ProviderError{
			Message:   "request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &pagetl.ProviderError{
			Message:    fmt.Sprintf("endpoint returned %s: %s", resp.Status, bytes.TrimSpace(snippet)),
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var out []httpTranslation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &pagetl.ProviderError{
			Message:    "invalid response body",
			Cause:      err,
			StatusCode: resp.StatusCode,
		}
	}
	if len(out) != len(req.Texts) {
		return nil, &pagetl.CountMismatchError{Expected: len(req.Texts), Got: len(out)}
	}

	results := make([]string, len(out))
	for i, t := range out {
		results[i] = t.Target
	}
	return results, nil
}

// Verify HTTPProvider implements AIProvider
var _ AIProvider = (*HTTPProvider)(nil)
