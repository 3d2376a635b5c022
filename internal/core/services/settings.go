package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOwnerID = "owner.id"

	keySearchMode        = "search.mode"
	keySearchResultLimit = "search.result_limit"
	keySearchTimeout     = "search.aggregate_timeout"
	keySearchSummaryTopN = "search.summary_top_n"
	keySearchRRFK        = "search.rrf_k"

	keyProviderDefault         = "providers.default"
	keyProviderFallback        = "providers.fallback"
	keyProviderPriority        = "providers.priority"
	keyProviderTimeout         = "providers.timeout"
	keyProviderDefaultLimit    = "providers.default_limit"
	keyProviderBreakerFailures = "providers.breaker_failures"
	keyProviderBreakerCooldown = "providers.breaker_cooldown"
	keyTavilyAPIKey            = "providers.tavily.api_key"
	keySearXNGBaseURL          = "providers.searxng.base_url"
	keySearXNGAPIKey           = "providers.searxng.api_key"
	keyGoogleAPIKey            = "providers.google.api_key"
	keyGoogleEngineID          = "providers.google.engine_id"
	keyGitHubToken             = "providers.github.token"

	keyIngestWorkers        = "ingest.workers"
	keyIngestRetryAttempts  = "ingest.retry_attempts"
	keyIngestRetryBackoff   = "ingest.retry_backoff"
	keyIngestDomainInterval = "ingest.domain_interval"
	keyIngestMinQuality     = "ingest.min_quality"
	keyIngestFetchTimeout   = "ingest.fetch_timeout"
	keyIngestMaxBytes       = "ingest.max_bytes"
	keyIngestUserAgent      = "ingest.user_agent"
	keyIngestFailedURLCap   = "ingest.failed_url_cap"
	keyIngestStaleAfter     = "ingest.stale_after"
	keyIngestChunkSize      = "ingest.chunk_size"
	keyIngestChunkOverlap   = "ingest.chunk_overlap"

	keySessionTTL           = "session.ttl"
	keySessionMaxIngestRefs = "session.max_ingest_refs"
	keySessionBackend       = "session.backend"
	keySessionRedisAddr     = "session.redis_addr"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindList
)

// settingDef describes how SetValue parses and validates one key.
type settingDef struct {
	kind     valueKind
	min      float64
	max      float64
	validate func(string) error
}

func validProviderChoice(v string) error {
	v = strings.ToLower(v)
	if v == domain.ProviderAuto || domain.IsKnownProvider(v) {
		return nil
	}
	return fmt.Errorf("unknown provider %q", v)
}

func validProviderList(v string) error {
	for _, name := range splitList(v) {
		if !domain.IsKnownProvider(name) {
			return fmt.Errorf("unknown provider %q", name)
		}
	}
	return nil
}

var settingDefs = map[string]settingDef{
	keyOwnerID: {kind: kindString, validate: nonEmpty},

	keySearchMode: {kind: kindString, validate: func(v string) error {
		if !domain.SearchMode(v).IsValid() {
			return fmt.Errorf("invalid search mode: %s", v)
		}
		return nil
	}},
	keySearchResultLimit: {kind: kindInt, min: 1, max: 100},
	keySearchTimeout:     {kind: kindDuration, min: float64(time.Second)},
	keySearchSummaryTopN: {kind: kindInt, min: 0, max: 20},
	keySearchRRFK:        {kind: kindInt, min: 1},

	keyProviderDefault:         {kind: kindString, validate: validProviderChoice},
	keyProviderFallback:        {kind: kindString, validate: validProviderChoice},
	keyProviderPriority:        {kind: kindList, validate: validProviderList},
	keyProviderTimeout:         {kind: kindDuration, min: float64(100 * time.Millisecond)},
	keyProviderDefaultLimit:    {kind: kindInt, min: 1, max: 20},
	keyProviderBreakerFailures: {kind: kindInt, min: 1},
	keyProviderBreakerCooldown: {kind: kindDuration, min: float64(time.Second)},
	keyTavilyAPIKey:            {kind: kindString},
	keySearXNGBaseURL:          {kind: kindString},
	keySearXNGAPIKey:           {kind: kindString},
	keyGoogleAPIKey:            {kind: kindString},
	keyGoogleEngineID:          {kind: kindString},
	keyGitHubToken:             {kind: kindString},

	keyIngestWorkers:        {kind: kindInt, min: 1, max: 64},
	keyIngestRetryAttempts:  {kind: kindInt, min: 1, max: 10},
	keyIngestRetryBackoff:   {kind: kindDuration},
	keyIngestDomainInterval: {kind: kindDuration},
	keyIngestMinQuality:     {kind: kindFloat, min: 0, max: 1},
	keyIngestFetchTimeout:   {kind: kindDuration, min: float64(time.Second)},
	keyIngestMaxBytes:       {kind: kindInt, min: 1024},
	keyIngestUserAgent:      {kind: kindString, validate: nonEmpty},
	keyIngestFailedURLCap:   {kind: kindInt, min: 1},
	keyIngestStaleAfter:     {kind: kindDuration, min: float64(time.Minute)},
	keyIngestChunkSize:      {kind: kindInt, min: 100},
	keyIngestChunkOverlap:   {kind: kindInt, min: 0},

	keySessionTTL:           {kind: kindDuration, min: float64(time.Minute)},
	keySessionMaxIngestRefs: {kind: kindInt, min: 0},
	keySessionBackend: {kind: kindString, validate: func(v string) error {
		if !domain.SessionBackend(v).IsValid() {
			return fmt.Errorf("invalid session backend: %s", v)
		}
		return nil
	}},
	keySessionRedisAddr: {kind: kindString},

	keyEmbedModel:   {kind: kindString},
	keyEmbedBaseURL: {kind: kindString},
	keyEmbedAPIKey:  {kind: kindString},
	keyLLMModel:     {kind: kindString},
	keyLLMBaseURL:   {kind: kindString},
	keyLLMAPIKey:    {kind: kindString},
	keyEmbedProvider: {kind: kindString, validate: func(v string) error {
		return validAIProvider(v, domain.AllEmbeddingProviders())
	}},
	keyLLMProvider: {kind: kindString, validate: func(v string) error {
		return validAIProvider(v, domain.AllLLMProviders())
	}},
}

func nonEmpty(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("value must not be empty")
	}
	return nil
}

func validAIProvider(v string, allowed []domain.AIProvider) error {
	for _, p := range allowed {
		if string(p) == v {
			return nil
		}
	}
	return fmt.Errorf("unsupported provider: %s", v)
}

// SettingKeys returns every key accepted by SetValue, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingDefs))
	for k := range settingDefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		OwnerID: s.getString(keyOwnerID, d.OwnerID),
		Search: domain.SearchSettings{
			Mode:             s.getSearchMode(d.Search.Mode),
			ResultLimit:      s.getInt(keySearchResultLimit, d.Search.ResultLimit),
			AggregateTimeout: s.getDuration(keySearchTimeout, d.Search.AggregateTimeout),
			SummaryTopN:      s.getInt(keySearchSummaryTopN, d.Search.SummaryTopN),
			RRFK:             s.getInt(keySearchRRFK, d.Search.RRFK),
		},
		Providers: domain.ProviderSettings{
			Default:         strings.ToLower(s.getString(keyProviderDefault, d.Providers.Default)),
			Fallback:        strings.ToLower(s.getString(keyProviderFallback, d.Providers.Fallback)),
			Priority:        s.getStringSlice(keyProviderPriority, d.Providers.Priority),
			Timeout:         s.getDuration(keyProviderTimeout, d.Providers.Timeout),
			DefaultLimit:    s.getInt(keyProviderDefaultLimit, d.Providers.DefaultLimit),
			BreakerFailures: s.getInt(keyProviderBreakerFailures, d.Providers.BreakerFailures),
			BreakerCooldown: s.getDuration(keyProviderBreakerCooldown, d.Providers.BreakerCooldown),
			TavilyAPIKey:    s.configStore.GetString(keyTavilyAPIKey),
			SearXNGBaseURL:  s.getString(keySearXNGBaseURL, d.Providers.SearXNGBaseURL),
			SearXNGAPIKey:   s.configStore.GetString(keySearXNGAPIKey),
			GoogleAPIKey:    s.configStore.GetString(keyGoogleAPIKey),
			GoogleEngineID:  s.configStore.GetString(keyGoogleEngineID),
			GitHubToken:     s.configStore.GetString(keyGitHubToken),
		},
		Ingest: domain.IngestSettings{
			Workers:         s.getInt(keyIngestWorkers, d.Ingest.Workers),
			RetryAttempts:   s.getInt(keyIngestRetryAttempts, d.Ingest.RetryAttempts),
			RetryBackoff:    s.getDuration(keyIngestRetryBackoff, d.Ingest.RetryBackoff),
			DomainInterval:  s.getDuration(keyIngestDomainInterval, d.Ingest.DomainInterval),
			MinQualityScore: s.getFloat(keyIngestMinQuality, d.Ingest.MinQualityScore),
			FetchTimeout:    s.getDuration(keyIngestFetchTimeout, d.Ingest.FetchTimeout),
			MaxBytes:        int64(s.getInt(keyIngestMaxBytes, int(d.Ingest.MaxBytes))),
			UserAgent:       s.getString(keyIngestUserAgent, d.Ingest.UserAgent),
			FailedURLCap:    s.getInt(keyIngestFailedURLCap, d.Ingest.FailedURLCap),
			StaleAfter:      s.getDuration(keyIngestStaleAfter, d.Ingest.StaleAfter),
			ChunkSize:       s.getInt(keyIngestChunkSize, d.Ingest.ChunkSize),
			ChunkOverlap:    s.getInt(keyIngestChunkOverlap, d.Ingest.ChunkOverlap),
		},
		Session: domain.SessionSettings{
			TTL:           s.getDuration(keySessionTTL, d.Session.TTL),
			MaxIngestRefs: s.getInt(keySessionMaxIngestRefs, d.Session.MaxIngestRefs),
			Backend:       s.getSessionBackend(d.Session.Backend),
			RedisAddr:     s.configStore.GetString(keySessionRedisAddr),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
	}

	return settings, nil
}

// Save persists application settings.
// Empty secrets are skipped so a partial settings value never clears a stored key.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyOwnerID, settings.OwnerID},
		{keySearchMode, settings.Search.Mode.String()},
		{keySearchResultLimit, settings.Search.ResultLimit},
		{keySearchTimeout, settings.Search.AggregateTimeout.String()},
		{keySearchSummaryTopN, settings.Search.SummaryTopN},
		{keySearchRRFK, settings.Search.RRFK},
		{keyProviderDefault, settings.Providers.Default},
		{keyProviderFallback, settings.Providers.Fallback},
		{keyProviderPriority, settings.Providers.Priority},
		{keyProviderTimeout, settings.Providers.Timeout.String()},
		{keyProviderDefaultLimit, settings.Providers.DefaultLimit},
		{keyProviderBreakerFailures, settings.Providers.BreakerFailures},
		{keyProviderBreakerCooldown, settings.Providers.BreakerCooldown.String()},
		{keySearXNGBaseURL, settings.Providers.SearXNGBaseURL},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyIngestRetryAttempts, settings.Ingest.RetryAttempts},
		{keyIngestRetryBackoff, settings.Ingest.RetryBackoff.String()},
		{keyIngestDomainInterval, settings.Ingest.DomainInterval.String()},
		{keyIngestMinQuality, settings.Ingest.MinQualityScore},
		{keyIngestFetchTimeout, settings.Ingest.FetchTimeout.String()},
		{keyIngestMaxBytes, settings.Ingest.MaxBytes},
		{keyIngestUserAgent, settings.Ingest.UserAgent},
		{keyIngestFailedURLCap, settings.Ingest.FailedURLCap},
		{keyIngestStaleAfter, settings.Ingest.StaleAfter.String()},
		{keyIngestChunkSize, settings.Ingest.ChunkSize},
		{keyIngestChunkOverlap, settings.Ingest.ChunkOverlap},
		{keySessionTTL, settings.Session.TTL.String()},
		{keySessionMaxIngestRefs, settings.Session.MaxIngestRefs},
		{keySessionBackend, string(settings.Session.Backend)},
		{keySessionRedisAddr, settings.Session.RedisAddr},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := map[string]string{
		keyTavilyAPIKey:   settings.Providers.TavilyAPIKey,
		keySearXNGAPIKey:  settings.Providers.SearXNGAPIKey,
		keyGoogleAPIKey:   settings.Providers.GoogleAPIKey,
		keyGoogleEngineID: settings.Providers.GoogleEngineID,
		keyGitHubToken:    settings.Providers.GitHubToken,
		keyEmbedAPIKey:    settings.Embedding.APIKey,
		keyLLMAPIKey:      settings.LLM.APIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetValue validates and stores a single key. Durations use Go syntax
// ("30s"), lists are comma separated.
func (s *SettingsService) SetValue(key, value string) error {
	def, ok := settingDefs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	if def.validate != nil {
		if err := def.validate(value); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
	}

	var stored any
	switch def.kind {
	case kindString:
		if key == keyProviderDefault || key == keyProviderFallback {
			value = strings.ToLower(value)
		}
		stored = value
	case kindList:
		stored = splitList(value)
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		if err := def.checkRange(key, float64(n)); err != nil {
			return err
		}
		stored = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		if err := def.checkRange(key, f); err != nil {
			return err
		}
		stored = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects a duration such as 30s", domain.ErrInvalidInput, key)
		}
		if err := def.checkRange(key, float64(d)); err != nil {
			return err
		}
		stored = d.String()
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (def settingDef) checkRange(key string, v float64) error {
	if v < def.min {
		return fmt.Errorf("%w: %s must be at least %s", domain.ErrInvalidInput, key, def.format(def.min))
	}
	if def.max > 0 && v > def.max {
		return fmt.Errorf("%w: %s must be at most %s", domain.ErrInvalidInput, key, def.format(def.max))
	}
	return nil
}

func (def settingDef) format(v float64) string {
	if def.kind == kindDuration {
		return time.Duration(v).String()
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SetSearchMode updates the search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", mode)
	}
	return s.configStore.Set(keySearchMode, mode.String())
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if err := validAIProvider(string(provider), domain.AllEmbeddingProviders()); err != nil {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = pickModel(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = pickBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = pickModel(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = pickBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func pickModel(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// Local providers keep a configured base URL; cloud providers use their own endpoint.
func pickBaseURL(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Validate checks if current settings are valid for the configured mode.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Search.Mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", settings.Search.Mode)
	}
	if settings.Search.Mode.RequiresEmbedding() && !settings.Embedding.IsConfigured() {
		return fmt.Errorf(
			"search mode %q requires embedding provider to be configured",
			settings.Search.Mode.Description(),
		)
	}
	if settings.Search.Mode.RequiresLLM() && !settings.LLM.IsConfigured() {
		return fmt.Errorf(
			"search mode %q requires LLM provider to be configured",
			settings.Search.Mode.Description(),
		)
	}
	if settings.Session.Backend == domain.SessionBackendRedis && settings.Session.RedisAddr == "" {
		return fmt.Errorf("session backend redis requires %s", keySessionRedisAddr)
	}
	if settings.Ingest.ChunkOverlap >= settings.Ingest.ChunkSize {
		return fmt.Errorf("%s must be smaller than %s", keyIngestChunkOverlap, keyIngestChunkSize)
	}

	return nil
}

// RequiresEmbedding returns true if current mode needs embedding.
func (s *SettingsService) RequiresEmbedding() bool {
	settings, err := s.Get()
	if err != nil {
		return false
	}
	return settings.Search.Mode.RequiresEmbedding()
}

// RequiresLLM returns true if current mode needs LLM.
func (s *SettingsService) RequiresLLM() bool {
	settings, err := s.Get()
	if err != nil {
		return false
	}
	return settings.Search.Mode.RequiresLLM()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	if _, exists := s.configStore.Get("scheduler.enabled"); exists {
		defaults.Enabled = s.configStore.GetBool("scheduler.enabled")
	}

	for _, task := range domain.HousekeepingTasks {
		prefix := "scheduler." + task.ConfigKey + "."
		taskCfg := defaults.TaskConfigs[task.ID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}
		if d := s.configStore.GetDuration(prefix + "interval"); d > 0 {
			taskCfg.Interval = d
		}

		defaults.TaskConfigs[task.ID] = taskCfg
	}

	return defaults
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d := s.configStore.GetDuration(key)
	if d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return append([]string(nil), defaultVal...)
	}
	out := make([]string, len(val))
	for i, v := range val {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getSessionBackend(defaultVal domain.SessionBackend) domain.SessionBackend {
	backend := domain.SessionBackend(s.configStore.GetString(keySessionBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
