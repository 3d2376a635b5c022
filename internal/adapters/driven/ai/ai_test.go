package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			body := decodeBody(t, r)
			assert.Equal(t, "nomic-embed-text", body["model"])
			_, _ = w.Write([]byte(`{"embedding":[0.5,0.25]}`))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "")

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.25}, {0.5, 0.25}}, vecs)
	assert.Equal(t, 768, e.Dimensions())
	assert.Equal(t, "nomic-embed-text", e.ModelName())
	assert.NoError(t, e.Ping(context.Background()))
}

func TestOllamaLLM_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, false, body["stream"])
		opts, ok := body["options"].(map[string]any)
		assert.True(t, ok)
		assert.EqualValues(t, 50, opts["num_predict"])
		_, _ = w.Write([]byte(`{"response":"rewritten query","done":true}`))
	}))
	defer srv.Close()

	l := NewOllamaLLM(srv.URL, "")
	out, err := l.Generate(context.Background(), "q", driven.GenerateOptions{MaxTokens: 50})

	require.NoError(t, err)
	assert.Equal(t, "rewritten query", out)
	assert.Equal(t, "llama3.2", l.ModelName())
}

func TestOpenAIEmbedder_OrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.EqualValues(t, 1536, body["dimensions"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[2],"index":1},{"embedding":[1],"index":0}]}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL, "sk-test", "")
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
}

func TestOpenAILLM_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	l, err := NewOpenAILLM(srv.URL, "sk-bad", "")
	require.NoError(t, err)

	_, err = l.Generate(context.Background(), "hi", driven.GenerateOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)
}

func TestOpenAILLM_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body := decodeBody(t, r)
		msgs, ok := body["messages"].([]any)
		assert.True(t, ok)
		assert.Len(t, msgs, 1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`))
	}))
	defer srv.Close()

	l, err := NewOpenAILLM(srv.URL, "sk", "gpt-4o")
	require.NoError(t, err)

	out, err := l.Generate(context.Background(), "question", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestAnthropicLLM_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body := decodeBody(t, r)
		assert.EqualValues(t, anthropicMaxTokens, body["max_tokens"])
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Go "},{"type":"tool_use"},{"type":"text","text":"rocks"}]}`))
	}))
	defer srv.Close()

	l, err := NewAnthropicLLM(srv.URL, "sk-ant", "")
	require.NoError(t, err)

	out, err := l.Generate(context.Background(), "q", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Go rocks", out)
}

func TestConstructorsRequireAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "")
	assert.Error(t, err)
	_, err = NewOpenAILLM("", "", "")
	assert.Error(t, err)
	_, err = NewAnthropicLLM("", "", "")
	assert.Error(t, err)
}

func TestNewEmbeddingService(t *testing.T) {
	svc, err := NewEmbeddingService(nil)
	assert.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = NewEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, svc)

	svc, err = NewEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, svc)

	_, err = NewEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"})
	assert.Error(t, err)
}

func TestNewLLMService(t *testing.T) {
	svc, err := NewLLMService(&domain.LLMSettings{})
	assert.NoError(t, err)
	assert.Nil(t, svc)

	for provider, want := range map[domain.AIProvider]driven.LLMService{
		domain.AIProviderOllama:    &OllamaLLM{},
		domain.AIProviderOpenAI:    &OpenAILLM{},
		domain.AIProviderAnthropic: &AnthropicLLM{},
	} {
		svc, err := NewLLMService(&domain.LLMSettings{Provider: provider, APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, want, svc)
	}
}

func TestInit_DropsUnreachableServices(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer up.Close()

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: down.URL}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL}

	svcs := Init(context.Background(), &settings)
	defer svcs.Close()

	assert.Nil(t, svcs.Embedding)
	assert.NotNil(t, svcs.LLM)
	require.Len(t, svcs.Warnings, 1)
	assert.Contains(t, svcs.Warnings[0], "embedding service unavailable")
}

func TestInit_NothingConfigured(t *testing.T) {
	settings := domain.DefaultAppSettings()

	svcs := Init(context.Background(), &settings)

	assert.Nil(t, svcs.Embedding)
	assert.Nil(t, svcs.LLM)
	assert.Empty(t, svcs.Warnings)
}

func TestConfigValidator(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{}))
	assert.NoError(t, v.ValidateLLM(nil))
	assert.Error(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}))
}
