package provider

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ZaguanLabs/pagetl"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string       // OpenAI API key
	Model       string       // Model to use (default: "gpt-4o-mini")
	Temperature float32      // Temperature for generation (default: 0.3)
	BaseURL     string       // OpenAI-compatible endpoint (optional)
	HTTPClient  *http.Client // optional
}

// OpenAIProvider translates batches with a chat completion in JSON mode.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Translate implements pagetl.AIProvider.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &pagetl.ProviderError{Message: "no choices in OpenAI response", Retryable: true}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		// a truncated JSON body never decodes; smaller batches might fit
		return nil, &pagetl.ProviderError{Message: "OpenAI response truncated at the token limit", Retryable: false}
	}
	return decodeTranslations(choice.Message.Content, len(req.Texts))
}

// classify wraps a client error. HTTP status decides retryability when the
// API answered; otherwise only network timeouts are retried.
func classify(err error) *pagetl.ProviderError {
	perr := &pagetl.ProviderError{Message: "OpenAI API call failed", Cause: err}

	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		netErr net.Error
	)
	switch {
	case errors.As(err, &apiErr):
		perr.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		perr.StatusCode = reqErr.HTTPStatusCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return perr
	case errors.As(err, &netErr):
		perr.Retryable = netErr.Timeout()
		return perr
	}

	perr.Retryable = perr.StatusCode == http.StatusTooManyRequests || perr.StatusCode >= 500
	return perr
}

var _ AIProvider = (*OpenAIProvider)(nil)
