package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZaguanLabs/pagetl"
)

func TestHTTPProvider_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "pagetl/") {
			t.Errorf("Unexpected user agent %q", r.Header.Get("User-Agent"))
		}

		var body httpRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		if body.Target != "es_ES" {
			t.Errorf("Expected target es_ES, got %q", body.Target)
		}

		out := make([]httpTranslation, len(body.Texts))
		for i, text := range body.Texts {
			out[i] = httpTranslation{Source: text, Target: "es:" + text}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Endpoint: srv.URL, APIKey: "secret"})
	got, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Hello", "World"},
		TargetLang: "es_ES",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(got) != 2 || got[0] != "es:Hello" || got[1] != "es:World" {
		t.Errorf("Unexpected translations: %v", got)
	}
}

func TestHTTPProvider_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))

		p := NewHTTPProvider(HTTPConfig{Endpoint: srv.URL})
		_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}, TargetLang: "fr"})
		srv.Close()

		var perr *pagetl.ProviderError
		if !errors.As(err, &perr) {
			t.Fatalf("status %d: expected ProviderError, got %v", tt.status, err)
		}
		if perr.StatusCode != tt.status {
			t.Errorf("status %d: StatusCode = %d", tt.status, perr.StatusCode)
		}
		if perr.Retryable != tt.retryable {
			t.Errorf("status %d: Retryable = %v, want %v", tt.status, perr.Retryable, tt.retryable)
		}
	}
}

func TestHTTPProvider_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"source":"Hello","target":"Hola"}]`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Endpoint: srv.URL})
	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello", "World"}, TargetLang: "es"})

	var mismatch *pagetl.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected CountMismatchError, got %v", err)
	}
	if mismatch.Expected != 2 || mismatch.Got != 1 {
		t.Errorf("Unexpected mismatch: %+v", mismatch)
	}
}

func TestHTTPProvider_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Endpoint: srv.URL})
	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}, TargetLang: "es"})

	var perr *pagetl.ProviderError
	if !errors.As(err, &perr) || perr.Retryable {
		t.Errorf("Expected non-retryable ProviderError, got %v", err)
	}
}

func TestHTTPProvider_EmptyBatch(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{Endpoint: "http://127.0.0.1:0"})
	got, err := p.Translate(context.Background(), TranslateRequest{TargetLang: "es"})
	if err != nil || len(got) != 0 {
		t.Errorf("Expected empty result without a request, got %v, %v", got, err)
	}
}
