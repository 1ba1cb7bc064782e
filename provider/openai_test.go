package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/pagetl"
)

func TestSystemPrompt(t *testing.T) {
	prompt := systemPrompt(TranslateRequest{
		TargetLang:    "es_ES",
		SourceLang:    "en",
		Context:       "E-commerce website",
		ExcludedTerms: []string{"API", "SDK"},
	})

	for _, want := range []string{"Spanish (Spain)", "E-commerce website", "- API\n", "- SDK\n", "Castilian Spanish", `"translations"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestSystemPrompt_GlossaryAndStyle(t *testing.T) {
	prompt := systemPrompt(TranslateRequest{
		TargetLang: "nb_NO",
		Glossary: map[string]string{
			"on the fly":   "fortløpende",
			"cutting-edge": "banebrytende",
		},
		Style: pagetl.StyleMarketing,
	})

	first := strings.Index(prompt, `"cutting-edge" → banebrytende`)
	second := strings.Index(prompt, `"on the fly" → fortløpende`)
	if first < 0 || second < 0 || first > second {
		t.Errorf("glossary should be listed in sorted order:\n%s", prompt)
	}
	if !strings.Contains(prompt, "persuasive") {
		t.Error("prompt should contain the marketing register")
	}
	if !strings.Contains(prompt, "Bokmål") {
		t.Error("prompt should contain the Norwegian locale hint")
	}
	if strings.Contains(prompt, "# Never translate") {
		t.Error("exclusions section should be omitted without terms")
	}
}

func TestUserMessage(t *testing.T) {
	msg := userMessage(TranslateRequest{
		Texts:        []string{"Hello", "Search"},
		TextContexts: []string{"", "input placeholder"},
	})

	want := `{"items":[{"id":0,"text":"Hello"},{"id":1,"text":"Search","hint":"input placeholder"}]}`
	if msg != want {
		t.Errorf("userMessage =\n%s\nwant\n%s", msg, want)
	}
}

func TestDecodeTranslations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"string array", `{"translations": ["Hola", "Mundo"]}`, []string{"Hola", "Mundo"}},
		{"id objects", `{"translations": [{"id": 0, "text": "Hola"}, {"id": 1, "text": "Mundo"}]}`, []string{"Hola", "Mundo"}},
		{"reordered ids", `{"translations": [{"id": 1, "text": "Mundo"}, {"id": 0, "text": "Hola"}]}`, []string{"Hola", "Mundo"}},
		{"bare array", `["Hola", "Mundo"]`, []string{"Hola", "Mundo"}},
		{"other key", `{"results": ["Hola", "Mundo"]}`, []string{"Hola", "Mundo"}},
		{"fenced", "```json\n{\"translations\": [\"Hola\", \"Mundo\"]}\n```", []string{"Hola", "Mundo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeTranslations(tt.content, 2)
			if err != nil {
				t.Fatalf("decodeTranslations failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeTranslations_Errors(t *testing.T) {
	var mismatch *pagetl.CountMismatchError
	if _, err := decodeTranslations(`{"translations": ["Hola"]}`, 2); !errors.As(err, &mismatch) {
		t.Errorf("expected CountMismatchError, got %v", err)
	} else if mismatch.Expected != 2 || mismatch.Got != 1 {
		t.Errorf("unexpected mismatch: %+v", mismatch)
	}

	for _, content := range []string{
		`not json`,
		`{"note": "no array here"}`,
		`{"translations": [{"id": 0, "text": "a"}, {"id": 0, "text": "b"}]}`,
		`{"translations": [{"id": 0, "text": "a"}, {"id": 7, "text": "b"}]}`,
	} {
		var perr *pagetl.ProviderError
		if _, err := decodeTranslations(content, 2); !errors.As(err, &perr) || perr.Retryable {
			t.Errorf("%s: expected a non-retryable ProviderError, got %v", content, err)
		}
	}
}

// fakeOpenAI serves /v1/chat/completions with a canned assistant message.
func fakeOpenAI(t *testing.T, handle func(req openai.ChatCompletionRequest) (int, any)) (*OpenAIProvider, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization %q", got)
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		status, body := handle(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	return NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}), calls
}

func completion(content string, finish openai.FinishReason) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: finish,
		}},
	}
}

func TestOpenAIProvider_Translate(t *testing.T) {
	p, calls := fakeOpenAI(t, func(req openai.ChatCompletionRequest) (int, any) {
		if req.Model != defaultOpenAIModel {
			t.Errorf("model = %q", req.Model)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Errorf("expected JSON mode, got %+v", req.ResponseFormat)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("unexpected messages: %+v", req.Messages)
			return http.StatusBadRequest, nil
		}

		var in struct {
			Items []promptItem `json:"items"`
		}
		if err := json.Unmarshal([]byte(req.Messages[1].Content), &in); err != nil {
			t.Errorf("user message is not JSON: %v", err)
			return http.StatusBadRequest, nil
		}
		// answer out of order
		var parts []string
		for i := len(in.Items) - 1; i >= 0; i-- {
			parts = append(parts, fmt.Sprintf(`{"id":%d,"text":"es:%s"}`, in.Items[i].ID, in.Items[i].Text))
		}
		return http.StatusOK, completion(`{"translations":[`+strings.Join(parts, ",")+`]}`, openai.FinishReasonStop)
	})

	got, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Hello", "World"},
		TargetLang: "es_ES",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if diff := cmp.Diff([]string{"es:Hello", "es:World"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestOpenAIProvider_EmptyBatch(t *testing.T) {
	p, calls := fakeOpenAI(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusOK, completion(`{"translations":[]}`, openai.FinishReasonStop)
	})

	got, err := p.Translate(context.Background(), TranslateRequest{TargetLang: "es"})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
	if calls.Load() != 0 {
		t.Error("empty batches must not reach the API")
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		retryable bool
		code      int
	}{
		{"rate limited", http.StatusTooManyRequests,
			map[string]any{"error": map[string]any{"message": "slow down", "type": "rate_limit_error"}}, true, 429},
		{"server error", http.StatusBadGateway,
			map[string]any{"error": map[string]any{"message": "upstream", "type": "server_error"}}, true, 502},
		{"bad request", http.StatusBadRequest,
			map[string]any{"error": map[string]any{"message": "bad model", "type": "invalid_request_error"}}, false, 400},
		{"truncated", http.StatusOK, completion(`{"translations":["Ho`, openai.FinishReasonLength), false, 0},
		{"no choices", http.StatusOK, openai.ChatCompletionResponse{}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := fakeOpenAI(t, func(openai.ChatCompletionRequest) (int, any) {
				return tt.status, tt.body
			})

			_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}, TargetLang: "es"})

			var perr *pagetl.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Retryable != tt.retryable || perr.StatusCode != tt.code {
				t.Errorf("got retryable=%v status=%d, want %v/%d", perr.Retryable, perr.StatusCode, tt.retryable, tt.code)
			}
		})
	}
}

func TestClassify_Cancelled(t *testing.T) {
	perr := classify(fmt.Errorf("post: %w", context.Canceled))
	if perr.Retryable || !errors.Is(perr, context.Canceled) {
		t.Errorf("cancellation should not be retried: %+v", perr)
	}
}
