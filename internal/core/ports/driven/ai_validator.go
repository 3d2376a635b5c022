package driven

import "github.com/custodia-labs/sercha-discover/internal/core/domain"

// AIConfigValidator checks AI settings against the live provider before they
// are saved. An unconfigured provider is valid.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
