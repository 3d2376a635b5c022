package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("search.mode", "hybrid")
	_ = store.Set("search.rrf_k", 30)
	_ = store.Set("providers.default", "SearXNG")
	_ = store.Set("providers.priority", []any{"tavily", " GitHub "})
	_ = store.Set("providers.timeout", "3s")
	_ = store.Set("providers.tavily.api_key", "tvly-key")
	_ = store.Set("ingest.min_quality", int64(1))
	_ = store.Set("ingest.max_bytes", int64(2048))
	_ = store.Set("session.max_ingest_refs", 0)
	_ = store.Set("session.backend", "redis")
	_ = store.Set("session.redis_addr", "localhost:6379")
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeHybrid, settings.Search.Mode)
	assert.Equal(t, 30, settings.Search.RRFK)
	assert.Equal(t, "searxng", settings.Providers.Default)
	assert.Equal(t, []string{"tavily", "github"}, settings.Providers.Priority)
	assert.Equal(t, 3*time.Second, settings.Providers.Timeout)
	assert.Equal(t, "tvly-key", settings.Providers.TavilyAPIKey)
	assert.InDelta(t, 1.0, settings.Ingest.MinQualityScore, 1e-9)
	assert.Equal(t, int64(2048), settings.Ingest.MaxBytes)
	assert.Equal(t, 0, settings.Session.MaxIngestRefs, "explicit zero is kept")
	assert.Equal(t, domain.SessionBackendRedis, settings.Session.Backend)
	assert.Equal(t, "localhost:6379", settings.Session.RedisAddr)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("search.mode", "invalid_mode")
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("session.backend", "memcached")
	_ = store.Set("providers.timeout", "soon")

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Search.Mode, settings.Search.Mode)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Session.Backend, settings.Session.Backend)
	assert.Equal(t, defaults.Providers.Timeout, settings.Providers.Timeout)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)
	settings.OwnerID = "alice"
	settings.Search.Mode = domain.SearchModeFull
	settings.Search.AggregateTimeout = 7 * time.Second
	settings.Providers.Priority = []string{"google", "tavily"}
	settings.Providers.GoogleAPIKey = "g-key"
	settings.Providers.GoogleEngineID = "cx"
	settings.Ingest.Workers = 8
	settings.Ingest.MinQualityScore = 0.4
	settings.Session.TTL = time.Hour
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, Model: "m", APIKey: "sk-e"}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic, Model: "c", APIKey: "sk-ant"}

	require.NoError(t, service.Save(settings))

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, retrieved)
}

func TestSettingsService_Save_EmptySecretsKeepStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("providers.github.token", "ghp_existing")
	_ = store.Set("llm.api_key", "sk-existing")
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	require.NoError(t, service.Save(&settings))

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_existing", retrieved.Providers.GitHubToken)
	assert.Equal(t, "sk-existing", retrieved.LLM.APIKey)
}

func TestSettingsService_SetValue(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetValue("providers.default", "Tavily"))
	require.NoError(t, service.SetValue("providers.priority", "github, searxng"))
	require.NoError(t, service.SetValue("providers.breaker_cooldown", "1m"))
	require.NoError(t, service.SetValue("ingest.workers", "12"))
	require.NoError(t, service.SetValue("ingest.min_quality", "0.35"))
	require.NoError(t, service.SetValue("session.backend", "redis"))
	require.NoError(t, service.SetValue("search.summary_top_n", "0"))
	require.NoError(t, service.SetValue("owner.id", "bob"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "tavily", settings.Providers.Default)
	assert.Equal(t, []string{"github", "searxng"}, settings.Providers.Priority)
	assert.Equal(t, time.Minute, settings.Providers.BreakerCooldown)
	assert.Equal(t, 12, settings.Ingest.Workers)
	assert.InDelta(t, 0.35, settings.Ingest.MinQualityScore, 1e-9)
	assert.Equal(t, domain.SessionBackendRedis, settings.Session.Backend)
	assert.Equal(t, 0, settings.Search.SummaryTopN)
	assert.Equal(t, "bob", settings.OwnerID)
}

func TestSettingsService_SetValue_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "search.colour", "blue"},
		{"unknown provider", "providers.default", "bing"},
		{"unknown provider in list", "providers.priority", "tavily,bing"},
		{"not an integer", "ingest.workers", "many"},
		{"below minimum", "ingest.workers", "0"},
		{"above maximum", "providers.default_limit", "50"},
		{"quality out of range", "ingest.min_quality", "1.5"},
		{"bad duration", "session.ttl", "forever"},
		{"duration too short", "session.ttl", "10s"},
		{"bad search mode", "search.mode", "magic"},
		{"bad backend", "session.backend", "memcached"},
		{"anthropic embeddings", "embedding.provider", "anthropic"},
		{"empty owner", "owner.id", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store, nil)

			err := service.SetValue(tt.key, tt.value)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, exists := store.Get(tt.key)
			assert.False(t, exists)
		})
	}
}

func TestSettingsService_SetValue_StoreError(t *testing.T) {
	store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: "ingest.workers"}
	service := NewSettingsService(store, nil)

	err := service.SetValue("ingest.workers", "2")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest.workers")
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()

	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "providers.tavily.api_key")
	assert.Contains(t, keys, "ingest.stale_after")
	assert.Contains(t, keys, "session.redis_addr")
}

func TestSettingsService_SetSearchMode(t *testing.T) {
	for _, mode := range domain.AllSearchModes() {
		t.Run(string(mode), func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil)

			require.NoError(t, service.SetSearchMode(mode))

			settings, _ := service.Get()
			assert.Equal(t, mode, settings.Search.Mode)
		})
	}

	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.Error(t, service.SetSearchMode("invalid"))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	settings, _ := service.Get()
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))
	settings, _ = service.Get()
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Error(t, service.SetEmbeddingProvider("invalid", "", ""))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))

	err := service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "sk-ant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support embeddings")
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.base_url", "http://gpu-box:11434")
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))
	settings, _ := service.Get()
	assert.Equal(t, "llama3.2", settings.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", settings.LLM.BaseURL)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))
	settings, _ = service.Get()
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)

	assert.Error(t, service.SetLLMProvider("invalid", "", ""))
	assert.Error(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{"defaults", nil, ""},
		{"hybrid without embedding", map[string]any{"search.mode": "hybrid"}, "embedding"},
		{
			"hybrid with ollama embedding",
			map[string]any{"search.mode": "hybrid", "embedding.provider": "ollama"},
			"",
		},
		{"llm assisted without llm", map[string]any{"search.mode": "llm_assisted"}, "LLM"},
		{
			"full with openai llm missing key",
			map[string]any{"search.mode": "full", "embedding.provider": "ollama", "llm.provider": "openai"},
			"LLM",
		},
		{"redis without address", map[string]any{"session.backend": "redis"}, "session.redis_addr"},
		{
			"overlap not below chunk size",
			map[string]any{"ingest.chunk_size": 200, "ingest.chunk_overlap": 200},
			"ingest.chunk_overlap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}
			service := NewSettingsService(store, nil)

			err := service.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSettingsService_RequiresEmbeddingAndLLM(t *testing.T) {
	tests := []struct {
		mode      domain.SearchMode
		embedding bool
		llm       bool
	}{
		{domain.SearchModeTextOnly, false, false},
		{domain.SearchModeHybrid, true, false},
		{domain.SearchModeLLMAssisted, false, true},
		{domain.SearchModeFull, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil)
			require.NoError(t, service.SetSearchMode(tt.mode))

			assert.Equal(t, tt.embedding, service.RequiresEmbedding())
			assert.Equal(t, tt.llm, service.RequiresLLM())
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_GetSchedulerConfig(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("scheduler.session_sweep.enabled", false)
	_ = store.Set("scheduler.ingest_reaper.interval", "90s")
	_ = store.Set("scheduler.ingest_reaper.enabled", true)
	service := NewSettingsService(store, nil)

	cfg := service.GetSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.TaskConfigs[domain.TaskIDSessionSweep].Enabled)
	assert.True(t, cfg.TaskConfigs[domain.TaskIDIngestReaper].Enabled)
	assert.Equal(t, 90*time.Second, cfg.TaskConfigs[domain.TaskIDIngestReaper].Interval)

	_ = store.Set("scheduler.enabled", false)
	assert.False(t, service.GetSchedulerConfig().Enabled)
}

// failingConfigStore fails Set for one key, or for every key when failOn is empty.
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

func TestSettingsService_Save_StoreError(t *testing.T) {
	for _, key := range []string{"search.mode", "providers.priority", "ingest.min_quality", "llm.api_key"} {
		t.Run(key, func(t *testing.T) {
			service := NewSettingsService(&failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: key}, nil)
			settings := domain.DefaultAppSettings()
			settings.LLM.APIKey = "sk-test"

			err := service.Save(&settings)

			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

// mockAIConfigValidator returns fixed errors.
type mockAIConfigValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_ValidateAIConfig(t *testing.T) {
	store := memory.NewConfigStore()

	assert.NoError(t, NewSettingsService(store, nil).ValidateEmbeddingConfig())
	assert.NoError(t, NewSettingsService(store, nil).ValidateLLMConfig())
	assert.NoError(t, NewSettingsService(store, &mockAIConfigValidator{}).ValidateEmbeddingConfig())

	failing := NewSettingsService(store, &mockAIConfigValidator{embedErr: assert.AnError, llmErr: assert.AnError})
	assert.ErrorIs(t, failing.ValidateEmbeddingConfig(), assert.AnError)
	assert.ErrorIs(t, failing.ValidateLLMConfig(), assert.AnError)
}
