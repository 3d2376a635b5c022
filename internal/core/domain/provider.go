package domain

import "time"

// ProviderAuto requests automatic provider selection.
const ProviderAuto = "auto"

// Well-known provider names.
const (
	ProviderTavily  = "tavily"
	ProviderSearXNG = "searxng"
	ProviderGoogle  = "google"
	ProviderGitHub  = "github"
)

// KnownProviders returns the well-known provider names in default priority order.
func KnownProviders() []string {
	return []string{ProviderSearXNG, ProviderTavily, ProviderGoogle, ProviderGitHub}
}

// IsKnownProvider reports whether name is a well-known provider.
func IsKnownProvider(name string) bool {
	for _, p := range KnownProviders() {
		if p == name {
			return true
		}
	}
	return false
}

// ProviderHealth is the last observed health of a provider.
type ProviderHealth string

// Available health states.
const (
	// ProviderHealthUnknown means no probe or call has completed yet.
	ProviderHealthUnknown ProviderHealth = "unknown"

	// ProviderHealthHealthy means the last probe or call succeeded.
	ProviderHealthHealthy ProviderHealth = "healthy"

	// ProviderHealthUnhealthy means the last probe or call failed.
	ProviderHealthUnhealthy ProviderHealth = "unhealthy"

	// ProviderHealthUnconfigured means the provider lacks required settings.
	ProviderHealthUnconfigured ProviderHealth = "unconfigured"
)

// IsValid returns true if the health state is recognised.
func (h ProviderHealth) IsValid() bool {
	switch h {
	case ProviderHealthUnknown, ProviderHealthHealthy, ProviderHealthUnhealthy, ProviderHealthUnconfigured:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (h ProviderHealth) String() string {
	return string(h)
}

// ProviderStatus is the health snapshot of one provider.
type ProviderStatus struct {
	// Name is the provider name.
	Name string

	// Available is true when the provider is configured.
	Available bool

	// Health is the last observed health.
	Health ProviderHealth

	// LatencyMs is the duration of the last probe or call.
	LatencyMs int64

	// Message is "ok" or the last error.
	Message string

	// CheckedAt is when the health was last updated.
	CheckedAt time.Time

	// BreakerState is the circuit breaker state (closed, half-open, open).
	BreakerState string
}

// Healthy reports whether the provider can currently be used.
func (s ProviderStatus) Healthy() bool {
	return s.Available && s.Health == ProviderHealthHealthy
}

// ProviderFilters describes which request filters a provider honours.
type ProviderFilters struct {
	Engines   bool
	TimeRange bool
	Language  bool
}

// ProviderCapabilities describes a provider for client control panels.
type ProviderCapabilities struct {
	// Name is the provider name.
	Name string

	// Available is true when the provider is configured.
	Available bool

	// Supports lists the honoured filters.
	Supports ProviderFilters

	// Engines lists selectable upstream engines.
	Engines []string

	// Languages lists selectable languages.
	Languages []string

	// TimeRanges lists selectable time ranges.
	TimeRanges []string
}

// ProviderOptionsReport answers getProviderOptions.
type ProviderOptionsReport struct {
	DefaultProvider  string
	FallbackProvider string
	Providers        []ProviderCapabilities
}

// ProviderStatusReport answers getProviderStatus.
type ProviderStatusReport struct {
	DefaultProvider      string
	FallbackProvider     string
	HealthyProviderCount int
	Providers            []ProviderStatus
}

// StandardTimeRanges are the time range filter values understood by providers.
func StandardTimeRanges() []string {
	return []string{"day", "week", "month", "year"}
}
