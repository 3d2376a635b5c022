package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/logger"
	"github.com/custodia-labs/sercha-discover/internal/metrics"
)

// RouterConfig configures provider selection.
type RouterConfig struct {
	// Default is "auto" or the provider tried first.
	Default string

	// Fallback is the provider tried second.
	Fallback string

	// Priority orders the remaining providers.
	Priority []string

	// Timeout bounds every provider call.
	Timeout time.Duration

	// BreakerFailures opens a provider's breaker after this many consecutive failures.
	BreakerFailures int

	// BreakerCooldown is how long an open breaker rejects calls.
	BreakerCooldown time.Duration
}

// RouterConfigFromSettings builds a RouterConfig from application settings.
func RouterConfigFromSettings(s domain.ProviderSettings) RouterConfig {
	return RouterConfig{
		Default:         s.Default,
		Fallback:        s.Fallback,
		Priority:        s.Priority,
		Timeout:         s.Timeout,
		BreakerFailures: s.BreakerFailures,
		BreakerCooldown: s.BreakerCooldown,
	}
}

// providerHandle pairs a provider with its breaker and last observed health.
type providerHandle struct {
	name     string
	provider driven.SearchProvider
	breaker  *gobreaker.CircuitBreaker

	mu     sync.RWMutex
	health domain.ProviderStatus
}

func (h *providerHandle) status() domain.ProviderStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := h.health
	st.Available = h.provider.Available()
	if !st.Available {
		st.Health = domain.ProviderHealthUnconfigured
	}
	st.BreakerState = h.breaker.State().String()
	return st
}

func (h *providerHandle) record(latency time.Duration, err error, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	previous := h.health.Health
	h.health.LatencyMs = latency.Milliseconds()
	h.health.CheckedAt = at
	if err != nil {
		h.health.Health = domain.ProviderHealthUnhealthy
		h.health.Message = err.Error()
	} else {
		h.health.Health = domain.ProviderHealthHealthy
		h.health.Message = "ok"
	}

	if previous != h.health.Health {
		logger.L().Info("provider health changed",
			zap.String("provider", h.name),
			zap.String("from", previous.String()),
			zap.String("to", h.health.Health.String()),
			zap.String("message", h.health.Message))
	}
}

// ProviderRouter selects external search providers, falling back along a
// candidate list when a provider times out, fails or returns nothing.
type ProviderRouter struct {
	cfg     RouterConfig
	handles map[string]*providerHandle
	names   []string
	now     func() time.Time
}

// NewProviderRouter creates a router over the given providers. Providers are
// injected explicitly; there is no global registry.
func NewProviderRouter(cfg RouterConfig, providers ...driven.SearchProvider) *ProviderRouter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	cfg.Default = normaliseProviderName(cfg.Default)
	if cfg.Default == "" {
		cfg.Default = domain.ProviderAuto
	}
	cfg.Fallback = normaliseProviderName(cfg.Fallback)

	r := &ProviderRouter{
		cfg:     cfg,
		handles: make(map[string]*providerHandle, len(providers)),
		now:     time.Now,
	}

	failures := uint32(cfg.BreakerFailures) //nolint:gosec // small positive config value
	for _, p := range providers {
		name := normaliseProviderName(p.Name())
		if _, dup := r.handles[name]; dup {
			continue
		}
		r.handles[name] = &providerHandle{
			name:     name,
			provider: p,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    name,
				Timeout: cfg.BreakerCooldown,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= failures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					logger.L().Warn("provider circuit breaker state change",
						zap.String("provider", name),
						zap.String("from", from.String()),
						zap.String("to", to.String()))
				},
			}),
			health: domain.ProviderStatus{Name: name, Health: domain.ProviderHealthUnknown},
		}
		r.names = append(r.names, name)
	}

	return r
}

func normaliseProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Providers returns the registered provider names in registration order.
func (r *ProviderRouter) Providers() []string {
	return append([]string(nil), r.names...)
}

// order returns every registered provider in selection order: the
// configured default (or, for "auto", the first available provider in
// priority order), the configured fallback, the priority list, then the rest.
func (r *ProviderRouter) order() []string {
	ordered := make([]string, 0, len(r.names))
	seen := make(map[string]bool, len(r.names))
	add := func(name string) {
		name = normaliseProviderName(name)
		if _, ok := r.handles[name]; !ok || seen[name] {
			return
		}
		seen[name] = true
		ordered = append(ordered, name)
	}

	primary := r.cfg.Default
	if primary == domain.ProviderAuto {
		for _, name := range r.cfg.Priority {
			if h, ok := r.handles[normaliseProviderName(name)]; ok && h.provider.Available() {
				primary = name
				break
			}
		}
	}
	add(primary)
	add(r.cfg.Fallback)
	for _, name := range r.cfg.Priority {
		add(name)
	}
	for _, name := range r.names {
		add(name)
	}
	return ordered
}

// Candidates resolves a provider preference to the ordered list of
// providers to try. "auto" (or empty) yields every available provider in
// selection order; an explicit name pins that provider alone.
func (r *ProviderRouter) Candidates(requested string) ([]string, error) {
	requested = normaliseProviderName(requested)

	if requested != "" && requested != domain.ProviderAuto {
		h, ok := r.handles[requested]
		if !ok {
			return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, requested)
		}
		if !h.provider.Available() {
			return nil, fmt.Errorf("%w: %s is not configured", domain.ErrProviderUnavailable, requested)
		}
		return []string{requested}, nil
	}

	candidates := make([]string, 0, len(r.names))
	for _, name := range r.order() {
		if r.handles[name].provider.Available() {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no provider configured", domain.ErrProviderUnavailable)
	}
	return candidates, nil
}

// Search runs the query against candidates in order until one returns
// hits. Failures and empty results advance to the next candidate. The
// result is empty (not an error) when every provider answered with nothing.
func (r *ProviderRouter) Search(
	ctx context.Context, requested string, query domain.ExternalQuery,
) (*domain.ExternalSearchResult, error) {
	logger.Section("External Search")

	candidates, err := r.Candidates(requested)
	if err != nil {
		return nil, err
	}
	logger.Debug("Provider candidates: %v", candidates)

	result := &domain.ExternalSearchResult{ProviderRequested: requested}
	if result.ProviderRequested == "" {
		result.ProviderRequested = domain.ProviderAuto
	}

	answered := -1
	var lastErr error

	for i, name := range candidates {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		h := r.handles[name]
		hits, latency, callErr := r.call(ctx, h, query)

		attempt := domain.ProviderAttempt{Provider: name, Latency: latency, Results: len(hits)}
		if callErr != nil {
			attempt.Err = callErr.Error()
		}
		result.Attempts = append(result.Attempts, attempt)

		if callErr != nil {
			logger.Warn("Provider %s failed after %s: %v", name, latency, callErr)
			lastErr = callErr
			continue
		}
		if answered < 0 {
			answered = i
		}
		if len(hits) == 0 {
			logger.Debug("Provider %s returned no results", name)
			continue
		}

		result.ProviderUsed = name
		result.FallbackUsed = i > 0
		result.Hits = r.normalise(name, hits, query.MaxResults)
		logger.Info("Provider %s returned %d results (fallback=%t)", name, len(result.Hits), result.FallbackUsed)
		return result, nil
	}

	if answered >= 0 {
		result.ProviderUsed = candidates[answered]
		result.FallbackUsed = answered > 0
		result.Hits = []domain.SearchHit{}
		return result, nil
	}

	return result, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, lastErr)
}

// call invokes one provider through its breaker under a hard timeout.
// The call returns at the deadline even if the provider ignores ctx.
func (r *ProviderRouter) call(
	ctx context.Context, h *providerHandle, query domain.ExternalQuery,
) ([]domain.SearchHit, time.Duration, error) {
	name := h.name
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := r.now()
	out, err := h.breaker.Execute(func() (interface{}, error) {
		type response struct {
			hits []domain.SearchHit
			err  error
		}
		done := make(chan response, 1)
		go func() {
			hits, err := h.provider.Search(callCtx, query)
			done <- response{hits: hits, err: err}
		}()

		select {
		case resp := <-done:
			return resp.hits, resp.err
		case <-callCtx.Done():
			return nil, fmt.Errorf("provider %s: %w", name, callCtx.Err())
		}
	})
	latency := r.now().Sub(start)

	metrics.ProviderLatency.WithLabelValues(name).Observe(latency.Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.ProviderRequests.WithLabelValues(name, "breaker_open").Inc()
		return nil, latency, fmt.Errorf("%w: %s circuit open", domain.ErrProviderUnavailable, name)
	}

	h.record(latency, err, r.now())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(name, "error").Inc()
		return nil, latency, err
	}

	hits, _ := out.([]domain.SearchHit)
	if len(hits) == 0 {
		metrics.ProviderRequests.WithLabelValues(name, "empty").Inc()
	} else {
		metrics.ProviderRequests.WithLabelValues(name, "ok").Inc()
	}
	return hits, latency, nil
}

// normalise stamps external provenance and ranks, and caps the list.
func (r *ProviderRouter) normalise(name string, hits []domain.SearchHit, maxResults int) []domain.SearchHit {
	if maxResults > 0 && len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	fetchedAt := r.now()
	out := make([]domain.SearchHit, 0, len(hits))
	for i := range hits {
		hit := hits[i]
		if strings.TrimSpace(hit.URL) == "" {
			continue
		}
		hit.Origin = domain.OriginExternal
		hit.ProviderName = name
		hit.Rank = len(out) + 1
		hit.SourceID = ""
		hit.DocumentID = ""
		if hit.FetchedAt.IsZero() {
			hit.FetchedAt = fetchedAt
		}
		out = append(out, hit)
	}
	return out
}

// Probe refreshes every provider's health concurrently.
func (r *ProviderRouter) Probe(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range r.names {
		h := r.handles[name]
		if !h.provider.Available() {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()

			start := r.now()
			err := h.provider.Probe(probeCtx)
			h.record(r.now().Sub(start), err, r.now())
		}()
	}
	wg.Wait()
}

// Status reports per-provider health in selection order. With refresh,
// providers are probed first.
func (r *ProviderRouter) Status(ctx context.Context, refresh bool) *domain.ProviderStatusReport {
	if refresh {
		r.Probe(ctx)
	}

	report := &domain.ProviderStatusReport{
		DefaultProvider:  r.cfg.Default,
		FallbackProvider: r.cfg.Fallback,
	}
	for _, name := range r.order() {
		st := r.handles[name].status()
		if st.Healthy() {
			report.HealthyProviderCount++
		}
		report.Providers = append(report.Providers, st)
	}
	return report
}

// Options describes every registered provider in selection order.
func (r *ProviderRouter) Options(ctx context.Context) *domain.ProviderOptionsReport {
	report := &domain.ProviderOptionsReport{
		DefaultProvider:  r.cfg.Default,
		FallbackProvider: r.cfg.Fallback,
	}
	for _, name := range r.order() {
		caps := r.handles[name].provider.Capabilities(ctx)
		caps.Name = name
		caps.Available = r.handles[name].provider.Available()
		report.Providers = append(report.Providers, caps)
	}
	return report
}
