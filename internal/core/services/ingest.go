package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-discover/internal/logger"
	"github.com/custodia-labs/sercha-discover/internal/metrics"
)

// Ensure IngestRunner implements the interface.
var _ driving.IngestService = (*IngestRunner)(nil)

// IngestConfig configures the ingestion job runner.
type IngestConfig struct {
	// Workers bounds items processed at once across all running jobs.
	Workers int

	// RetryAttempts is the number of fetch attempts per URL.
	RetryAttempts int

	// RetryBackoff is the initial backoff between attempts.
	RetryBackoff time.Duration

	// MinQualityScore rejects enriched items scoring below it.
	MinQualityScore float64

	// FailedURLCap bounds the failures recorded on a job.
	FailedURLCap int

	// MaxIngestRefs is how many ingestion requests one session may serve.
	MaxIngestRefs int

	// ProgressInterval is how often running jobs persist their counters.
	ProgressInterval time.Duration
}

// IngestConfigFromSettings builds an IngestConfig from application settings.
func IngestConfigFromSettings(s domain.AppSettings) IngestConfig {
	return IngestConfig{
		Workers:         s.Ingest.Workers,
		RetryAttempts:   s.Ingest.RetryAttempts,
		RetryBackoff:    s.Ingest.RetryBackoff,
		MinQualityScore: s.Ingest.MinQualityScore,
		FailedURLCap:    s.Ingest.FailedURLCap,
		MaxIngestRefs:   s.Session.MaxIngestRefs,
	}
}

func (c IngestConfig) withDefaults() IngestConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 1
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 750 * time.Millisecond
	}
	if c.FailedURLCap <= 0 {
		c.FailedURLCap = 100
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 500 * time.Millisecond
	}
	return c
}

// IngestRunner admits selected external hits into an owner's corpus as
// background jobs with bounded concurrency, retry, politeness throttling
// and quality gating.
type IngestRunner struct {
	jobs      driven.JobStore
	sessions  driven.SessionStore
	docs      driven.DocumentStore
	registry  *VirtualSourceRegistry
	fetcher   driven.PageFetcher
	extractor driven.ContentExtractor
	gate      *DomainGate
	cfg       IngestConfig

	// slots bounds item processing across all jobs of this runner.
	slots *semaphore.Weighted

	wg  sync.WaitGroup
	now func() time.Time
}

// NewIngestRunner creates a runner. fetcher and extractor may be nil, in
// which case enriched ingestion is rejected.
func NewIngestRunner(
	jobs driven.JobStore,
	sessions driven.SessionStore,
	docs driven.DocumentStore,
	registry *VirtualSourceRegistry,
	fetcher driven.PageFetcher,
	extractor driven.ContentExtractor,
	gate *DomainGate,
	cfg IngestConfig,
) *IngestRunner {
	cfg = cfg.withDefaults()
	return &IngestRunner{
		jobs:      jobs,
		sessions:  sessions,
		docs:      docs,
		registry:  registry,
		fetcher:   fetcher,
		extractor: extractor,
		gate:      gate,
		cfg:       cfg,
		slots:     semaphore.NewWeighted(int64(cfg.Workers)),
		now:       time.Now,
	}
}

// QueueIngest validates the request against its session, records a queued
// job and starts it. No job is created for an unknown or expired session.
func (r *IngestRunner) QueueIngest(ctx context.Context, req domain.IngestRequest) (*domain.IngestReceipt, error) {
	if req.OwnerID == "" || strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: owner and session are required", domain.ErrInvalidInput)
	}

	mode := req.PersistMode
	if mode == "" {
		mode = domain.PersistModeSnippetOnly
	}
	if !mode.Persists() {
		return nil, fmt.Errorf("%w: persist mode %q stores nothing", domain.ErrInvalidInput, mode)
	}
	if mode == domain.PersistModeEnriched && (r.fetcher == nil || r.extractor == nil) {
		return nil, fmt.Errorf("%w: enriched ingestion is not available", domain.ErrInvalidInput)
	}

	// Another owner's session must not lose a ref to this request.
	peek, err := r.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, sessionError(req.SessionID, err)
	}
	if peek.OwnerID != req.OwnerID {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, domain.ErrInvalidSession)
	}

	hits := peek.SelectHits(req.SelectedURLs)
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: no selected url belongs to session %s", domain.ErrInvalidInput, req.SessionID)
	}

	provider := peek.ProviderUsed
	if provider == "" {
		provider = hits[0].ProviderName
	}

	urls := make([]string, len(hits))
	for i := range hits {
		urls[i] = hits[i].URL
	}

	// The ref is taken only once the request is known to produce a job.
	if _, err := r.sessions.AcquireIngestRef(ctx, req.SessionID, r.cfg.MaxIngestRefs); err != nil {
		return nil, sessionError(req.SessionID, err)
	}

	now := r.now()
	job := &domain.IngestJob{
		ID:           uuid.NewString(),
		OwnerID:      req.OwnerID,
		SessionID:    peek.ID,
		ProviderName: provider,
		PersistMode:  mode,
		SelectedURLs: urls,
		Items:        hits,
		Status:       domain.JobStatusQueued,
		TotalItems:   len(hits),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.jobs.Create(ctx, job); err != nil {
		if relErr := r.sessions.ReleaseIngestRef(ctx, req.SessionID); relErr != nil {
			logger.L().Warn("release ingest ref failed", zap.String("session_id", req.SessionID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("create ingest job: %w", err)
	}
	metrics.IngestJobs.WithLabelValues(domain.JobStatusQueued.String()).Inc()

	logger.Info("Queued ingest job %s: %d items, mode=%s", job.ID, job.TotalItems, mode)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(context.WithoutCancel(ctx), job)
	}()

	return &domain.IngestReceipt{
		JobID:       job.ID,
		Status:      domain.JobStatusQueued,
		QueuedCount: job.TotalItems,
		PersistMode: mode,
	}, nil
}

func sessionError(id string, err error) error {
	if errors.Is(err, domain.ErrInvalidSession) {
		return fmt.Errorf("session %s: %w", id, err)
	}
	return fmt.Errorf("%w: session %s: %w", domain.ErrInvalidSession, id, err)
}

// GetIngestJob returns an owner's job. Jobs of other owners are not found.
func (r *IngestRunner) GetIngestJob(ctx context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

// Drain waits for every job started by this runner.
func (r *IngestRunner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes a job to a terminal status.
func (r *IngestRunner) run(ctx context.Context, job *domain.IngestJob) {
	log := logger.L().With(zap.String("job_id", job.ID), zap.String("owner_id", job.OwnerID))

	if err := r.jobs.Transition(ctx, job.ID, domain.JobStatusQueued, domain.JobStatusRunning, "", r.now()); err != nil {
		log.Warn("ingest job could not start", zap.Error(err))
		return
	}
	metrics.IngestJobs.WithLabelValues(domain.JobStatusRunning.String()).Inc()
	log.Info("ingest job started", zap.Int("items", job.TotalItems), zap.String("mode", job.PersistMode.String()))

	src, err := r.registry.Resolve(ctx, job.OwnerID, job.ProviderName)
	if err != nil {
		log.Error("resolve virtual source failed", zap.Error(err))
		r.finish(ctx, job, domain.JobStatusFailed, fmt.Sprintf("resolve virtual source: %v", err))
		return
	}

	progress := newJobProgress(r.cfg.FailedURLCap)
	stop := r.startReporter(ctx, job, progress)

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)
	for i := range job.Items {
		hit := job.Items[i]
		g.Go(func() error {
			if err := r.slots.Acquire(ctx, 1); err != nil {
				progress.fail(hit.URL, domain.FailureReasonFetch, err.Error())
				return nil
			}
			defer r.slots.Release(1)
			r.processItem(ctx, job, src, hit, progress)
			return nil
		})
	}
	_ = g.Wait()
	stop()

	progress.snapshot(job, r.now())
	if err := r.jobs.UpdateProgress(ctx, job); err != nil {
		log.Error("persist final progress failed", zap.Error(err))
	}

	r.finish(ctx, job, domain.JobStatusCompleted, "")
	log.Info("ingest job completed",
		zap.Int("stored", job.StoredItems),
		zap.Int("failed", job.FailedItems),
		zap.Int("duplicates", job.DuplicateItems),
		zap.Int("retries", job.RetryCount))
}

func (r *IngestRunner) finish(ctx context.Context, job *domain.IngestJob, to domain.JobStatus, errMsg string) {
	if err := r.jobs.Transition(ctx, job.ID, domain.JobStatusRunning, to, errMsg, r.now()); err != nil {
		logger.L().Error("ingest job transition failed",
			zap.String("job_id", job.ID), zap.String("to", to.String()), zap.Error(err))
		return
	}
	job.Status = to
	job.ErrorMessage = errMsg
	metrics.IngestJobs.WithLabelValues(to.String()).Inc()
}

// startReporter persists progress snapshots from a single goroutine until
// the returned stop function is called.
func (r *IngestRunner) startReporter(ctx context.Context, job *domain.IngestJob, progress *jobProgress) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(r.cfg.ProgressInterval)
		defer ticker.Stop()

		last := int64(-1)
		snapshot := *job
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if processed := progress.processed.Load(); processed != last {
					last = processed
					progress.snapshot(&snapshot, r.now())
					if err := r.jobs.UpdateProgress(ctx, &snapshot); err != nil {
						logger.L().Warn("persist progress failed", zap.String("job_id", job.ID), zap.Error(err))
					}
				}
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

// processItem takes one hit to a stored, duplicate or failed outcome.
func (r *IngestRunner) processItem(
	ctx context.Context, job *domain.IngestJob, src *domain.Source, hit domain.SearchHit, progress *jobProgress,
) {
	canonical, err := domain.CanonicalURL(hit.URL)
	if err != nil {
		progress.fail(hit.URL, domain.FailureReasonInvalidURL, err.Error())
		return
	}

	existing, err := r.docs.ExistingURLs(ctx, job.OwnerID, []string{canonical})
	if err != nil {
		logger.L().Warn("dedup check failed", zap.String("url", hit.URL), zap.Error(err))
	} else if existing[canonical] {
		progress.duplicate()
		return
	}

	var doc domain.Document
	switch job.PersistMode {
	case domain.PersistModeEnriched:
		enriched, retries, err := r.enrich(ctx, hit)
		progress.retries.Add(int64(retries))
		if err != nil {
			reason := domain.FailureReasonFetch
			if errors.Is(err, domain.ErrQualityRejected) {
				reason = domain.FailureReasonQualityRejected
			}
			progress.fail(hit.URL, reason, err.Error())
			return
		}
		doc = *enriched
	default:
		doc = snippetDocument(hit)
	}

	report, err := r.registry.Ingest(ctx, src, []domain.Document{doc})
	switch {
	case err != nil:
		progress.fail(hit.URL, domain.FailureReasonStore, err.Error())
	case len(report.Stored) == 1:
		progress.store(report.Stored[0].QualityScore)
	case len(report.Duplicates) > 0:
		progress.duplicate()
	case len(report.Invalid) > 0:
		progress.fail(hit.URL, domain.FailureReasonInvalidURL, report.Invalid[0].Detail)
	default:
		progress.fail(hit.URL, domain.FailureReasonStore, "item was not stored")
	}
}

// snippetDocument builds a stored item from the search hit alone.
func snippetDocument(hit domain.SearchHit) domain.Document {
	content := strings.TrimSpace(hit.Snippet)
	if content == "" {
		content = strings.TrimSpace(hit.Title)
	}
	doc := domain.Document{
		URL:         hit.URL,
		Title:       hit.Title,
		Description: hit.Snippet,
		Content:     content,
		PublishedAt: hit.PublishedAt,
		Metadata:    hitMetadata(hit, domain.PersistModeSnippetOnly),
	}
	doc.QualityScore = ScoreQuality(&domain.ExtractedContent{
		Title:       doc.Title,
		Description: doc.Description,
		Content:     doc.Content,
	})
	return doc
}

func hitMetadata(hit domain.SearchHit, mode domain.PersistMode) map[string]any {
	meta := map[string]any{
		"provider":     hit.ProviderName,
		"persist_mode": mode.String(),
		"rank":         hit.Rank,
	}
	if hit.Engine != "" {
		meta["engine"] = hit.Engine
	}
	return meta
}

// enrich fetches and extracts a page with retry. Quality rejections and
// permanent client errors are not retried. Returns the retries performed.
func (r *IngestRunner) enrich(ctx context.Context, hit domain.SearchHit) (*domain.Document, int, error) {
	host := domain.HostOf(hit.URL)
	retries := 0

	operation := func() (*domain.Document, error) {
		if err := r.gate.Wait(ctx, host); err != nil {
			return nil, backoff.Permanent(err)
		}

		page, err := r.fetcher.Fetch(ctx, hit.URL)
		if err != nil {
			var fetchErr *driven.FetchError
			if errors.As(err, &fetchErr) && fetchErr.Permanent() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		extracted, err := r.extractor.Extract(ctx, page)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("extract %s: %w", hit.URL, err))
		}

		score := ScoreQuality(extracted)
		if score < r.cfg.MinQualityScore {
			return nil, backoff.Permanent(fmt.Errorf("%w: score %.3f below %.3f",
				domain.ErrQualityRejected, score, r.cfg.MinQualityScore))
		}

		return enrichedDocument(hit, extracted, score), nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(r.cfg.RetryBackoff)),
			uint64(r.cfg.RetryAttempts-1), //nolint:gosec // attempts is at least 1
		),
		ctx,
	)

	doc, err := backoff.RetryNotifyWithData(operation, policy, func(err error, wait time.Duration) {
		retries++
		metrics.IngestRetries.Inc()
		logger.Debug("Retrying %s in %s: %v", hit.URL, wait, err)
	})
	return doc, retries, err
}

func enrichedDocument(hit domain.SearchHit, c *domain.ExtractedContent, score float64) *domain.Document {
	doc := &domain.Document{
		URL:          hit.URL,
		Title:        firstNonEmpty(c.Title, hit.Title),
		Description:  firstNonEmpty(c.Description, hit.Snippet),
		Content:      c.Content,
		Author:       c.Author,
		ImageURL:     c.ImageURL,
		PublishedAt:  c.PublishedAt,
		QualityScore: score,
		Metadata:     hitMetadata(hit, domain.PersistModeEnriched),
	}
	if doc.PublishedAt == nil {
		doc.PublishedAt = hit.PublishedAt
	}
	if c.CanonicalURL != "" {
		doc.Metadata["canonical_link"] = c.CanonicalURL
	}
	return doc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// jobProgress holds a running job's counters. Outcome counters are
// incremented before processed, so a snapshot never shows more outcomes
// than processed items once the job has finished.
type jobProgress struct {
	processed  atomic.Int64
	stored     atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64
	rejected   atomic.Int64
	retries    atomic.Int64

	mu           sync.Mutex
	qualitySum   float64
	qualityCount int
	failures     []domain.ItemFailure
	failureCap   int
}

func newJobProgress(failureCap int) *jobProgress {
	return &jobProgress{failureCap: failureCap}
}

func (p *jobProgress) store(quality float64) {
	p.mu.Lock()
	p.qualitySum += quality
	p.qualityCount++
	p.mu.Unlock()

	p.stored.Add(1)
	p.processed.Add(1)
	metrics.IngestItems.WithLabelValues(string(domain.ItemOutcomeStored)).Inc()
}

func (p *jobProgress) duplicate() {
	p.duplicates.Add(1)
	p.processed.Add(1)
	metrics.IngestItems.WithLabelValues(string(domain.ItemOutcomeDuplicate)).Inc()
}

func (p *jobProgress) fail(url string, reason domain.FailureReason, detail string) {
	p.mu.Lock()
	if len(p.failures) < p.failureCap {
		p.failures = append(p.failures, domain.ItemFailure{URL: url, Reason: reason, Detail: detail})
	}
	p.mu.Unlock()

	if reason == domain.FailureReasonQualityRejected {
		p.rejected.Add(1)
	}
	p.failed.Add(1)
	p.processed.Add(1)
	metrics.IngestItems.WithLabelValues(string(reason)).Inc()
}

// snapshot copies the counters into job.
func (p *jobProgress) snapshot(job *domain.IngestJob, at time.Time) {
	job.StoredItems = int(p.stored.Load())
	job.FailedItems = int(p.failed.Load())
	job.DuplicateItems = int(p.duplicates.Load())
	job.RejectedItems = int(p.rejected.Load())
	job.RetryCount = int(p.retries.Load())
	job.ProcessedItems = int(p.processed.Load())
	job.UpdatedAt = at

	p.mu.Lock()
	defer p.mu.Unlock()
	job.Failures = append([]domain.ItemFailure(nil), p.failures...)
	if p.qualityCount > 0 {
		job.AverageQualityScore = domain.RoundQuality(p.qualitySum / float64(p.qualityCount))
	}
}
