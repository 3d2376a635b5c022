package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-discover/internal/logger"
	"github.com/custodia-labs/sercha-discover/internal/metrics"
)

// Ensure QueryOrchestrator implements the interface.
var _ driving.QueryService = (*QueryOrchestrator)(nil)

// ExternalSearcher routes queries to external providers and reports on them.
// ProviderRouter is the production implementation.
type ExternalSearcher interface {
	Search(ctx context.Context, requested string, query domain.ExternalQuery) (*domain.ExternalSearchResult, error)
	Status(ctx context.Context, refresh bool) *domain.ProviderStatusReport
	Options(ctx context.Context) *domain.ProviderOptionsReport
}

// Ensure ProviderRouter implements the interface.
var _ ExternalSearcher = (*ProviderRouter)(nil)

// OrchestratorConfig configures combined queries.
type OrchestratorConfig struct {
	// ResultLimit caps the fused list and the provider request.
	ResultLimit int

	// DefaultExternalLimit is the provider request size when unspecified.
	DefaultExternalLimit int

	// AggregateTimeout bounds both branches together.
	AggregateTimeout time.Duration

	// SummaryTopN is the number of fused hits handed to the summarizer.
	SummaryTopN int

	// SessionTTL is the lifetime of a created search session.
	SessionTTL time.Duration

	// RRFK is the fusion damping constant.
	RRFK int
}

// OrchestratorConfigFromSettings builds an OrchestratorConfig from application settings.
func OrchestratorConfigFromSettings(s domain.AppSettings) OrchestratorConfig {
	return OrchestratorConfig{
		ResultLimit:          s.Search.ResultLimit,
		DefaultExternalLimit: s.Providers.DefaultLimit,
		AggregateTimeout:     s.Search.AggregateTimeout,
		SummaryTopN:          s.Search.SummaryTopN,
		SessionTTL:           s.Session.TTL,
		RRFK:                 s.Search.RRFK,
	}
}

func (c OrchestratorConfig) withDefaults() OrchestratorConfig {
	if c.ResultLimit <= 0 {
		c.ResultLimit = 20
	}
	if c.DefaultExternalLimit <= 0 {
		c.DefaultExternalLimit = 10
	}
	if c.AggregateTimeout <= 0 {
		c.AggregateTimeout = 20 * time.Second
	}
	if c.SummaryTopN <= 0 {
		c.SummaryTopN = 5
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	return c
}

// QueryOrchestrator runs internal and external search concurrently, fuses
// the two rankings and opens a session for follow-up ingestion.
type QueryOrchestrator struct {
	internal   InternalSearcher
	external   ExternalSearcher
	sessions   driven.SessionStore
	fusion     *RankFusion
	ingest     driving.IngestService
	summarizer driven.Summarizer
	cfg        OrchestratorConfig
	now        func() time.Time
}

// NewQueryOrchestrator creates an orchestrator. external may be nil, in
// which case every query is internal-only.
func NewQueryOrchestrator(
	internal InternalSearcher,
	external ExternalSearcher,
	sessions driven.SessionStore,
	cfg OrchestratorConfig,
) *QueryOrchestrator {
	cfg = cfg.withDefaults()
	return &QueryOrchestrator{
		internal: internal,
		external: external,
		sessions: sessions,
		fusion:   NewRankFusion(cfg.RRFK),
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetIngestService enables persistMode on search requests.
func (o *QueryOrchestrator) SetIngestService(ingest driving.IngestService) {
	o.ingest = ingest
}

// SetSummarizer enables response summaries.
func (o *QueryOrchestrator) SetSummarizer(summarizer driven.Summarizer) {
	o.summarizer = summarizer
}

type internalOutcome struct {
	hits []domain.SearchHit
	err  error
}

type externalOutcome struct {
	result *domain.ExternalSearchResult
	err    error
}

// Search answers a combined query. A failed external branch degrades to
// internal-only with FallbackUsed set. The call fails only when internal
// search fails and the external branch cannot stand in for it.
func (o *QueryOrchestrator) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if req.OwnerID == "" || query == "" {
		return nil, fmt.Errorf("%w: owner and query are required", domain.ErrInvalidInput)
	}

	mode, ok := domain.ParsePersistMode(string(req.PersistMode))
	if !ok {
		return nil, fmt.Errorf("%w: unknown persist mode %q", domain.ErrInvalidInput, req.PersistMode)
	}
	if req.PersistExternal && mode == domain.PersistModeNone {
		mode = domain.PersistModeSnippetOnly
	}

	limit := req.Limit
	if limit <= 0 || limit > o.cfg.ResultLimit {
		limit = o.cfg.ResultLimit
	}
	maxExternal := req.MaxExternalResults
	if maxExternal <= 0 {
		maxExternal = o.cfg.DefaultExternalLimit
	}
	if maxExternal > o.cfg.ResultLimit {
		maxExternal = o.cfg.ResultLimit
	}

	includeExternal := req.IncludeExternal && o.external != nil
	if req.IncludeExternal && o.external == nil {
		logger.Warn("External search requested but no provider router is configured")
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.cfg.AggregateTimeout)
	defer cancel()

	internalCh := make(chan internalOutcome, 1)
	go func() {
		hits, err := o.internal.Search(searchCtx, req.OwnerID, query, limit)
		internalCh <- internalOutcome{hits: hits, err: err}
	}()

	var externalCh chan externalOutcome
	if includeExternal {
		externalCh = make(chan externalOutcome, 1)
		go func() {
			result, err := o.external.Search(searchCtx, req.Provider, domain.ExternalQuery{
				Query:      query,
				MaxResults: maxExternal,
				TimeRange:  req.TimeRange,
				Language:   req.Language,
				Engines:    req.Engines,
			})
			externalCh <- externalOutcome{result: result, err: err}
		}()
	}

	in, ex := o.collect(searchCtx, internalCh, externalCh)

	switch {
	case in.err != nil && !includeExternal:
		metrics.SearchRequests.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, in.err)
	case in.err != nil && ex.err != nil:
		metrics.SearchRequests.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: internal: %w; external: %w", domain.ErrAllProvidersDown, in.err, ex.err)
	}

	resp := &domain.SearchResponse{Query: query}
	searchMode := "internal"

	internalHits := in.hits
	if in.err != nil {
		logger.L().Warn("internal search failed, serving external results only", zap.Error(in.err))
		internalHits = nil
		searchMode = "degraded"
	}

	var externalHits []domain.SearchHit
	if includeExternal {
		if ex.result != nil {
			resp.ProviderUsed = ex.result.ProviderUsed
			resp.FallbackUsed = ex.result.FallbackUsed
		}
		if ex.err != nil {
			logger.L().Warn("external search failed, serving internal results only", zap.Error(ex.err))
			resp.FallbackUsed = true
			searchMode = "degraded"
		} else {
			externalHits = ex.result.Hits
			if searchMode == "internal" {
				searchMode = "fused"
			}
		}
	}
	metrics.SearchRequests.WithLabelValues(searchMode).Inc()

	resp.InternalCount = len(internalHits)
	resp.ExternalCount = len(externalHits)
	resp.Results = o.fusion.Fuse(limit, internalHits, externalHits)

	if len(externalHits) > 0 {
		resp.SessionID = o.openSession(ctx, req.OwnerID, query, resp, externalHits)
	}

	if mode.Persists() && resp.SessionID != "" && o.ingest != nil {
		receipt, err := o.ingest.QueueIngest(ctx, domain.IngestRequest{
			OwnerID:     req.OwnerID,
			SessionID:   resp.SessionID,
			PersistMode: mode,
		})
		if err != nil {
			logger.L().Warn("auto-ingest of external results failed",
				zap.String("session_id", resp.SessionID), zap.Error(err))
		} else {
			resp.IngestJobID = receipt.JobID
		}
	}

	resp.Summary = o.summarize(ctx, query, resp.Results)

	logger.Info("Search %q: internal=%d external=%d fused=%d provider=%s fallback=%t",
		query, resp.InternalCount, resp.ExternalCount, len(resp.Results), resp.ProviderUsed, resp.FallbackUsed)
	return resp, nil
}

// collect joins both branches. A branch still running at the aggregate
// deadline counts as failed with the context error.
func (o *QueryOrchestrator) collect(
	ctx context.Context, internalCh <-chan internalOutcome, externalCh <-chan externalOutcome,
) (internalOutcome, externalOutcome) {
	var in internalOutcome
	var ex externalOutcome
	gotInternal, gotExternal := false, externalCh == nil

	for !gotInternal || !gotExternal {
		select {
		case in = <-internalCh:
			gotInternal = true
		case ex = <-externalCh:
			gotExternal = true
		case <-ctx.Done():
			if !gotInternal {
				in.err = fmt.Errorf("internal search: %w", ctx.Err())
			}
			if !gotExternal {
				ex.err = fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, ctx.Err())
			}
			return in, ex
		}
	}
	return in, ex
}

// openSession stores the query's external hits for follow-up ingestion and
// returns the session ID, or "" when the session could not be stored.
func (o *QueryOrchestrator) openSession(
	ctx context.Context, ownerID, query string, resp *domain.SearchResponse, externalHits []domain.SearchHit,
) string {
	if o.sessions == nil {
		return ""
	}

	now := o.now()
	session := &domain.SearchSession{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Query:        query,
		ProviderUsed: resp.ProviderUsed,
		FallbackUsed: resp.FallbackUsed,
		Results:      resp.Results,
		ExternalHits: externalHits,
		CreatedAt:    now,
		ExpiresAt:    now.Add(o.cfg.SessionTTL),
	}
	if err := o.sessions.Put(ctx, session); err != nil {
		logger.L().Warn("store search session failed", zap.Error(err))
		return ""
	}
	return session.ID
}

// summarize is best-effort; failures leave the summary empty.
func (o *QueryOrchestrator) summarize(ctx context.Context, query string, results []domain.FusedHit) string {
	if o.summarizer == nil || len(results) == 0 {
		return ""
	}

	top := results
	if len(top) > o.cfg.SummaryTopN {
		top = top[:o.cfg.SummaryTopN]
	}

	summary, err := o.summarizer.Summarize(ctx, query, top)
	if err != nil {
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			logger.Warn("Summary failed: %v", err)
		}
		return ""
	}
	return summary
}

// ProviderOptions describes the configured providers.
func (o *QueryOrchestrator) ProviderOptions(ctx context.Context) (*domain.ProviderOptionsReport, error) {
	if o.external == nil {
		return &domain.ProviderOptionsReport{Providers: []domain.ProviderCapabilities{}}, nil
	}
	return o.external.Options(ctx), nil
}

// ProviderStatus reports provider health, probing first when refresh is set.
func (o *QueryOrchestrator) ProviderStatus(ctx context.Context, refresh bool) (*domain.ProviderStatusReport, error) {
	if o.external == nil {
		return &domain.ProviderStatusReport{Providers: []domain.ProviderStatus{}}, nil
	}
	return o.external.Status(ctx, refresh), nil
}
