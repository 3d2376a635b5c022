package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure the OpenAI adapters implement the interfaces.
var (
	_ driven.EmbeddingService = (*OpenAIEmbedder)(nil)
	_ driven.LLMService       = (*OpenAILLM)(nil)
)

// OpenAI defaults.
const (
	OpenAIBaseURL        = "https://api.openai.com/v1"
	OpenAIEmbeddingModel = "text-embedding-3-small"
	OpenAILLMModel       = "gpt-4o-mini"
	openAITimeout        = 60 * time.Second
)

var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

func newOpenAIClient(baseURL, apiKey string) (*jsonClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return newJSONClient("openai", baseURL, openAITimeout, map[string]string{
		"Authorization": "Bearer " + apiKey,
	}), nil
}

// OpenAIEmbedder generates embeddings with the OpenAI API or a compatible endpoint.
type OpenAIEmbedder struct {
	c          *jsonClient
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an OpenAI embedding adapter.
func NewOpenAIEmbedder(baseURL, apiKey, model string) (*OpenAIEmbedder, error) {
	c, err := newOpenAIClient(baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = OpenAIEmbeddingModel
	}
	dims := openAIDimensions[model]
	if dims == 0 {
		dims = 1536
	}
	return &OpenAIEmbedder{c: c, model: model, dimensions: dims}, nil
}

// Embed generates a vector embedding for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || vecs[0] == nil {
		return nil, fmt.Errorf("openai: no embedding returned")
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one /embeddings request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := struct {
		Model      string   `json:"model"`
		Input      []string `json:"input"`
		Dimensions int      `json:"dimensions,omitempty"`
	}{Model: e.model, Input: texts}
	// Only text-embedding-3-* accept a dimensions override.
	if strings.HasPrefix(e.model, "text-embedding-3-") {
		req.Dimensions = e.dimensions
	}

	var resp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := e.c.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		out[d.Index] = toFloat32(d.Embedding)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// ModelName returns the embedding model.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Ping validates the API key through /models.
func (e *OpenAIEmbedder) Ping(ctx context.Context) error { return e.c.get(ctx, "/models", nil) }

// Close releases resources.
func (e *OpenAIEmbedder) Close() error { return nil }

// OpenAILLM generates text with the chat completions API.
type OpenAILLM struct {
	c     *jsonClient
	model string
}

// NewOpenAILLM creates an OpenAI LLM adapter.
func NewOpenAILLM(baseURL, apiKey, model string) (*OpenAILLM, error) {
	c, err := newOpenAIClient(baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = OpenAILLMModel
	}
	return &OpenAILLM{c: c, model: model}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends prompt as a single user message.
func (l *OpenAILLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		MaxTokens   int           `json:"max_tokens,omitempty"`
		Temperature float64       `json:"temperature,omitempty"`
		Stop        []string      `json:"stop,omitempty"`
	}{
		Model:       l.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	}

	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := l.c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the LLM model.
func (l *OpenAILLM) ModelName() string { return l.model }

// Ping validates the API key through /models.
func (l *OpenAILLM) Ping(ctx context.Context) error { return l.c.get(ctx, "/models", nil) }

// Close releases resources.
func (l *OpenAILLM) Close() error { return nil }
