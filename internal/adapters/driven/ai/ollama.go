package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure the Ollama adapters implement the interfaces.
var (
	_ driven.EmbeddingService = (*OllamaEmbedder)(nil)
	_ driven.LLMService       = (*OllamaLLM)(nil)
)

// Ollama defaults.
const (
	OllamaBaseURL        = "http://localhost:11434"
	OllamaEmbeddingModel = "nomic-embed-text"
	OllamaLLMModel       = "llama3.2"
	ollamaTimeout        = 120 * time.Second
)

var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// OllamaEmbedder generates embeddings with a local Ollama server.
type OllamaEmbedder struct {
	c          *jsonClient
	model      string
	dimensions int
}

// NewOllamaEmbedder creates an Ollama embedding adapter.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}
	if model == "" {
		model = OllamaEmbeddingModel
	}
	dims := ollamaDimensions[model]
	if dims == 0 {
		dims = 768
	}
	return &OllamaEmbedder{
		c:          newJSONClient("ollama", baseURL, ollamaTimeout, nil),
		model:      model,
		dimensions: dims,
	}
}

// Embed generates a vector embedding for the given text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp struct {
		Embedding []float64 `json:"embedding"`
	}
	req := map[string]string{"model": e.model, "prompt": text}
	if err := e.c.post(ctx, "/api/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama: empty embedding")
	}
	return toFloat32(resp.Embedding), nil
}

// EmbedBatch embeds texts one by one; Ollama has no batch endpoint.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

// ModelName returns the embedding model.
func (e *OllamaEmbedder) ModelName() string { return e.model }

// Ping checks the server through /api/tags without running inference.
func (e *OllamaEmbedder) Ping(ctx context.Context) error { return e.c.get(ctx, "/api/tags", nil) }

// Close releases resources.
func (e *OllamaEmbedder) Close() error { return nil }

// OllamaLLM generates text with a local Ollama server.
type OllamaLLM struct {
	c     *jsonClient
	model string
}

// NewOllamaLLM creates an Ollama LLM adapter.
func NewOllamaLLM(baseURL, model string) *OllamaLLM {
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}
	if model == "" {
		model = OllamaLLMModel
	}
	return &OllamaLLM{c: newJSONClient("ollama", baseURL, ollamaTimeout, nil), model: model}
}

type ollamaOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Generate produces a completion through /api/generate.
func (l *OllamaLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := struct {
		Model   string         `json:"model"`
		Prompt  string         `json:"prompt"`
		Stream  bool           `json:"stream"`
		Options *ollamaOptions `json:"options,omitempty"`
	}{Model: l.model, Prompt: prompt}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(opts.StopWords) > 0 {
		req.Options = &ollamaOptions{NumPredict: opts.MaxTokens, Temperature: opts.Temperature, Stop: opts.StopWords}
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := l.c.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// ModelName returns the LLM model.
func (l *OllamaLLM) ModelName() string { return l.model }

// Ping checks the server through /api/tags.
func (l *OllamaLLM) Ping(ctx context.Context) error { return l.c.get(ctx, "/api/tags", nil) }

// Close releases resources.
func (l *OllamaLLM) Close() error { return nil }
