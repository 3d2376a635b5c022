package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure AnthropicLLM implements the interface.
var _ driven.LLMService = (*AnthropicLLM)(nil)

// Anthropic defaults.
const (
	AnthropicBaseURL  = "https://api.anthropic.com"
	AnthropicLLMModel = "claude-3-5-haiku-latest"
	anthropicVersion  = "2023-06-01"
	anthropicTimeout  = 120 * time.Second

	// The messages API requires max_tokens.
	anthropicMaxTokens = 1024
)

// AnthropicLLM generates text with the Anthropic messages API.
type AnthropicLLM struct {
	c     *jsonClient
	model string
}

// NewAnthropicLLM creates an Anthropic LLM adapter.
func NewAnthropicLLM(baseURL, apiKey, model string) (*AnthropicLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if baseURL == "" {
		baseURL = AnthropicBaseURL
	}
	if model == "" {
		model = AnthropicLLMModel
	}
	c := newJSONClient("anthropic", baseURL, anthropicTimeout, map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	})
	return &AnthropicLLM{c: c, model: model}, nil
}

// Generate sends prompt as a single user message and joins the text blocks.
func (l *AnthropicLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}
	req := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		MaxTokens   int           `json:"max_tokens"`
		Temperature float64       `json:"temperature,omitempty"`
		StopSeqs    []string      `json:"stop_sequences,omitempty"`
	}{
		Model:       l.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := l.c.post(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic: no response content returned")
	}
	return b.String(), nil
}

// ModelName returns the LLM model.
func (l *AnthropicLLM) ModelName() string { return l.model }

// Ping validates the API key through /v1/models.
func (l *AnthropicLLM) Ping(ctx context.Context) error { return l.c.get(ctx, "/v1/models", nil) }

// Close releases resources.
func (l *AnthropicLLM) Close() error { return nil }
