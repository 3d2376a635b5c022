// Command discover is hybrid search over a local corpus and the web.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/chunker"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/extract/webpage"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/fetch/web"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers/github"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers/google"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers/searxng"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/providers/tavily"
	sessionmemory "github.com/custodia-labs/sercha-discover/internal/adapters/driven/session/memory"
	sessionredis "github.com/custodia-labs/sercha-discover/internal/adapters/driven/session/redis"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-discover/internal/core/services"
	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer app.close()

	cli.SetVersion(version)
	cli.SetServices(app.services)
	return cli.ExecuteContext(ctx)
}

// application holds everything main builds and must release.
type application struct {
	services *cli.Services
	closers  []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
}

// wire builds the service graph from the user's configuration.
func wire(ctx context.Context) (*application, error) {
	app := &application{}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	app.closers = append(app.closers, store.Close)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	aiServices := ai.Init(ctx, settings)
	for _, w := range aiServices.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	app.closers = append(app.closers, func() error {
		aiServices.Close()
		return nil
	})

	sessions, closeSessions := openSessions(ctx, settings.Session)
	if closeSessions != nil {
		app.closers = append(app.closers, closeSessions)
	}

	providers, err := buildProviders(settings.Providers)
	if err != nil {
		return nil, err
	}
	router := services.NewProviderRouter(services.RouterConfigFromSettings(settings.Providers), providers...)

	hybrid := services.NewHybridSearcher(
		store.DocumentStore(),
		store.SearchEngine(),
		store.VectorIndex(),
		aiServices.Embedding,
		aiServices.LLM,
	)
	hybrid.SetSourceStore(store.SourceStore())
	hybrid.SetPromptStore(prompts)
	hybrid.SetMode(settings.Search.Mode)

	registry := services.NewVirtualSourceRegistry(
		store.SourceStore(),
		store.DocumentStore(),
		store.SearchEngine(),
		chunker.New(
			chunker.WithChunkSize(settings.Ingest.ChunkSize),
			chunker.WithOverlap(settings.Ingest.ChunkOverlap),
		),
	)
	if aiServices.Embedding != nil {
		registry.SetVectorIndexing(store.VectorIndex(), aiServices.Embedding)
	}

	fetcher := web.New(web.Config{
		Timeout:   settings.Ingest.FetchTimeout,
		MaxBytes:  settings.Ingest.MaxBytes,
		UserAgent: settings.Ingest.UserAgent,
	})
	ingest := services.NewIngestRunner(
		store.JobStore(),
		sessions,
		store.DocumentStore(),
		registry,
		fetcher,
		webpage.New(),
		services.NewDomainGate(settings.Ingest.DomainInterval),
		services.IngestConfigFromSettings(*settings),
	)

	orchestrator := services.NewQueryOrchestrator(
		hybrid,
		router,
		sessions,
		services.OrchestratorConfigFromSettings(*settings),
	)
	orchestrator.SetIngestService(ingest)
	if aiServices.LLM != nil {
		orchestrator.SetSummarizer(services.NewLLMSummarizer(aiServices.LLM, prompts))
	}

	schedulerConfig := settingsService.GetSchedulerConfig()
	scheduler := services.NewScheduler(
		schedulerConfig,
		store.SchedulerStore(),
		store.JobStore(),
		sessions,
		settings.Ingest.StaleAfter,
	)

	app.services = &cli.Services{
		Query:            orchestrator,
		Ingest:           ingest,
		Source:           services.NewSourceService(store.SourceStore()),
		Settings:         settingsService,
		Scheduler:        scheduler,
		SchedulerEnabled: schedulerConfig.Enabled,
		OwnerID:          settings.OwnerID,
		SettingKeys:      services.SettingKeys(),
		Ready:            store.Ping,
		WatchConfig:      configStore.Watch,
		Reload: func() {
			reloaded, err := settingsService.Get()
			if err != nil {
				logger.Warn("reload settings: %v", err)
				return
			}
			hybrid.SetMode(reloaded.Search.Mode)
			prompts.Reload()
		},
	}
	return app, nil
}

// openSessions returns the configured session store. A redis backend that
// cannot be reached falls back to the in-process store.
func openSessions(ctx context.Context, cfg domain.SessionSettings) (driven.SessionStore, func() error) {
	if cfg.Backend == domain.SessionBackendRedis && cfg.RedisAddr != "" {
		store, err := sessionredis.Dial(ctx, cfg.RedisAddr)
		if err == nil {
			return store, store.Close
		}
		fmt.Fprintf(os.Stderr, "Warning: %v; using in-process sessions\n", err)
	}
	return sessionmemory.NewStore(), nil
}

// buildProviders creates every external provider. Providers without
// credentials are still registered and report themselves unavailable.
func buildProviders(cfg domain.ProviderSettings) ([]driven.SearchProvider, error) {
	gh, err := github.New(github.Config{Token: cfg.GitHubToken})
	if err != nil {
		return nil, fmt.Errorf("creating github provider: %w", err)
	}
	return []driven.SearchProvider{
		tavily.New(tavily.Config{APIKey: cfg.TavilyAPIKey}),
		searxng.New(searxng.Config{BaseURL: cfg.SearXNGBaseURL, APIKey: cfg.SearXNGAPIKey}),
		google.New(google.Config{APIKey: cfg.GoogleAPIKey, EngineID: cfg.GoogleEngineID}),
		gh,
	}, nil
}
