package domain

import "time"

const unknownDescription = "Unknown"

// SearchMode defines how search operations combine different retrieval methods.
type SearchMode string

// Available search modes.
const (
	// SearchModeTextOnly uses only keyword/full-text search.
	SearchModeTextOnly SearchMode = "text_only"

	// SearchModeHybrid combines text and semantic (vector) search.
	SearchModeHybrid SearchMode = "hybrid"

	// SearchModeLLMAssisted uses text search with LLM query expansion.
	SearchModeLLMAssisted SearchMode = "llm_assisted"

	// SearchModeFull combines text, semantic, and LLM query expansion.
	SearchModeFull SearchMode = "full"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeTextOnly, SearchModeHybrid, SearchModeLLMAssisted, SearchModeFull:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeHybrid || m == SearchModeFull
}

// RequiresLLM returns true if this mode needs an LLM provider.
func (m SearchMode) RequiresLLM() bool {
	return m == SearchModeLLMAssisted || m == SearchModeFull
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeTextOnly:
		return "Text Only (keyword search)"
	case SearchModeHybrid:
		return "Hybrid (text + semantic search)"
	case SearchModeLLMAssisted:
		return "LLM Assisted (text + query expansion)"
	case SearchModeFull:
		return "Full (text + semantic + LLM)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// Mode is the internal retrieval mode.
	Mode SearchMode

	// ResultLimit caps the fused result list.
	ResultLimit int

	// AggregateTimeout bounds a whole query across both branches.
	AggregateTimeout time.Duration

	// SummaryTopN is the number of fused hits handed to the summariser.
	SummaryTopN int

	// RRFK is the reciprocal rank fusion damping constant.
	RRFK int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ProviderSettings holds external search provider configuration.
type ProviderSettings struct {
	// Default is "auto" or the provider tried first.
	Default string

	// Fallback is the provider tried second.
	Fallback string

	// Priority is the order in which remaining providers are tried.
	Priority []string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// DefaultLimit is the default number of external results.
	DefaultLimit int

	// BreakerFailures is the consecutive failure count that opens a breaker.
	BreakerFailures int

	// BreakerCooldown is how long an open breaker rejects calls.
	BreakerCooldown time.Duration

	// TavilyAPIKey enables the Tavily provider.
	TavilyAPIKey string

	// SearXNGBaseURL enables the SearXNG provider.
	SearXNGBaseURL string

	// SearXNGAPIKey is sent as X-API-Key when set.
	SearXNGAPIKey string

	// GoogleAPIKey and GoogleEngineID enable Google Programmable Search.
	GoogleAPIKey   string
	GoogleEngineID string

	// GitHubToken authenticates GitHub repository search (optional).
	GitHubToken string
}

// IngestSettings holds ingestion job runner configuration.
type IngestSettings struct {
	// Workers bounds items processed at once across all running jobs.
	Workers int

	// RetryAttempts is the number of fetch attempts per URL.
	RetryAttempts int

	// RetryBackoff is the initial backoff between attempts.
	RetryBackoff time.Duration

	// DomainInterval is the minimum gap between fetches to one host.
	DomainInterval time.Duration

	// MinQualityScore rejects enriched items scoring below it.
	MinQualityScore float64

	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration

	// MaxBytes caps a fetched body.
	MaxBytes int64

	// UserAgent is sent with page fetches.
	UserAgent string

	// FailedURLCap bounds the failures list on a job.
	FailedURLCap int

	// StaleAfter marks unfinished jobs as abandoned after this age.
	StaleAfter time.Duration

	// ChunkSize and ChunkOverlap control chunking for the index.
	ChunkSize    int
	ChunkOverlap int
}

// SessionBackend selects the search session cache.
type SessionBackend string

// Available session backends.
const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b SessionBackend) IsValid() bool {
	return b == SessionBackendMemory || b == SessionBackendRedis
}

// SessionSettings holds search session cache configuration.
type SessionSettings struct {
	// TTL is how long a session stays usable.
	TTL time.Duration

	// MaxIngestRefs is how many ingestion requests a session serves.
	MaxIngestRefs int

	// Backend is memory or redis.
	Backend SessionBackend

	// RedisAddr is the redis address for the redis backend.
	RedisAddr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// OwnerID is the default owner for local use.
	OwnerID string

	// Search holds search behaviour settings.
	Search SearchSettings

	// Providers holds external provider settings.
	Providers ProviderSettings

	// Ingest holds ingestion settings.
	Ingest IngestSettings

	// Session holds session cache settings.
	Session SessionSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI features and provider credentials are left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		OwnerID: "local",
		Search: SearchSettings{
			Mode:             SearchModeTextOnly,
			ResultLimit:      20,
			AggregateTimeout: 20 * time.Second,
			SummaryTopN:      5,
			RRFK:             60,
		},
		Providers: ProviderSettings{
			Default:         ProviderAuto,
			Fallback:        ProviderTavily,
			Priority:        KnownProviders(),
			Timeout:         15 * time.Second,
			DefaultLimit:    10,
			BreakerFailures: 3,
			BreakerCooldown: 30 * time.Second,
			SearXNGBaseURL:  "http://localhost:8080",
		},
		Ingest: IngestSettings{
			Workers:         4,
			RetryAttempts:   2,
			RetryBackoff:    750 * time.Millisecond,
			DomainInterval:  500 * time.Millisecond,
			MinQualityScore: 0.15,
			FetchTimeout:    20 * time.Second,
			MaxBytes:        5 << 20,
			UserAgent:       "sercha-discover/1.0 (+https://github.com/custodia-labs/sercha-discover)",
			FailedURLCap:    100,
			StaleAfter:      30 * time.Minute,
			ChunkSize:       1000,
			ChunkOverlap:    200,
		},
		Session: SessionSettings{
			TTL:           30 * time.Minute,
			MaxIngestRefs: 3,
			Backend:       SessionBackendMemory,
		},
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{
		SearchModeTextOnly,
		SearchModeHybrid,
		SearchModeLLMAssisted,
		SearchModeFull,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}
