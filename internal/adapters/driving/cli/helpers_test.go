package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

type mockQueryService struct {
	response *domain.SearchResponse
	err      error
	last     domain.SearchRequest
	refresh  bool
}

func (m *mockQueryService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.SearchResponse{Query: req.Query}, nil
}

func (m *mockQueryService) ProviderOptions(context.Context) (*domain.ProviderOptionsReport, error) {
	return &domain.ProviderOptionsReport{
		DefaultProvider:  "searxng",
		FallbackProvider: "tavily",
		Providers: []domain.ProviderCapabilities{
			{Name: "searxng", Available: true, Supports: domain.ProviderFilters{Engines: true, TimeRange: true, Language: true}, Engines: []string{"duckduckgo", "bing"}},
			{Name: "github", Available: false},
		},
	}, m.err
}

func (m *mockQueryService) ProviderStatus(_ context.Context, refresh bool) (*domain.ProviderStatusReport, error) {
	m.refresh = refresh
	return &domain.ProviderStatusReport{
		DefaultProvider:      "searxng",
		FallbackProvider:     "tavily",
		HealthyProviderCount: 1,
		Providers: []domain.ProviderStatus{
			{Name: "searxng", Available: true, Health: domain.ProviderHealthHealthy, LatencyMs: 120, BreakerState: "closed"},
			{Name: "tavily", Available: true, Health: domain.ProviderHealthUnhealthy, Message: "401 unauthorized", BreakerState: "open"},
		},
	}, m.err
}

type mockIngestService struct {
	lastReq   domain.IngestRequest
	lastOwner string
	queueErr  error
	drained   int
	jobs      map[string]*domain.IngestJob
}

func (m *mockIngestService) QueueIngest(_ context.Context, req domain.IngestRequest) (*domain.IngestReceipt, error) {
	m.lastReq = req
	if m.queueErr != nil {
		return nil, m.queueErr
	}
	return &domain.IngestReceipt{JobID: "job-1", Status: domain.JobStatusQueued, QueuedCount: max(len(req.SelectedURLs), 2), PersistMode: req.PersistMode}, nil
}

func (m *mockIngestService) GetIngestJob(_ context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	m.lastOwner = ownerID
	job, ok := m.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (m *mockIngestService) Drain(context.Context) error {
	m.drained++
	return nil
}

type mockSourceService struct {
	sources []domain.Source
	owner   string
}

func (m *mockSourceService) List(_ context.Context, ownerID string) ([]domain.Source, error) {
	m.owner = ownerID
	return m.sources, nil
}

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func completedJob(owner string) *domain.IngestJob {
	return &domain.IngestJob{
		ID: "job-1", OwnerID: owner, Status: domain.JobStatusCompleted, ProviderName: "searxng",
		PersistMode: domain.PersistModeEnriched, TotalItems: 2, ProcessedItems: 2, StoredItems: 1, FailedItems: 1,
		RejectedItems: 1, AverageQualityScore: 0.5,
		Failures:  []domain.ItemFailure{{URL: "https://web.example/thin", Reason: domain.FailureReasonQualityRejected, Detail: "score 0.12"}},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	previous := services
	SetServices(s)
	t.Cleanup(func() { services = previous })
}

// run executes the root command with args and returns everything written.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
