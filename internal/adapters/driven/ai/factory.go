package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// pingTimeout bounds connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// Services holds the optional AI collaborators built from settings.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService

	// Warnings lists configured services that were dropped because they
	// could not be created or reached.
	Warnings []string
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Embedding != nil {
		_ = s.Embedding.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// Init builds and pings the configured services. A failing service is
// dropped with a warning so search degrades to keyword-only instead of failing.
func Init(ctx context.Context, settings *domain.AppSettings) *Services {
	out := &Services{}

	embedder, err := NewEmbeddingService(&settings.Embedding)
	if err == nil && embedder != nil {
		err = ping(ctx, embedder.Ping)
		if err != nil {
			_ = embedder.Close()
		}
	}
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%v: %v", domain.ErrEmbeddingUnavailable, err))
	} else {
		out.Embedding = embedder
	}

	llm, err := NewLLMService(&settings.LLM)
	if err == nil && llm != nil {
		err = ping(ctx, llm.Ping)
		if err != nil {
			_ = llm.Close()
		}
	}
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%v: %v", domain.ErrLLMUnavailable, err))
	} else {
		out.LLM = llm
	}

	return out
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// NewEmbeddingService creates the embedding adapter for settings.
// Returns nil when no provider is configured.
func NewEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return NewOllamaEmbedder(settings.BaseURL, settings.Model), nil
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAIEmbedder(settings.BaseURL, settings.APIKey, settings.Model)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// NewLLMService creates the LLM adapter for settings.
// Returns nil when no provider is configured.
func NewLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return NewOllamaLLM(settings.BaseURL, settings.Model), nil
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAILLM(settings.BaseURL, settings.APIKey, settings.Model)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		svc, err := NewAnthropicLLM(settings.BaseURL, settings.APIKey, settings.Model)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// ConfigValidator validates AI settings by creating the adapter and pinging it.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the configured embedding provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := NewEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

// ValidateLLM pings the configured LLM provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := NewLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}
