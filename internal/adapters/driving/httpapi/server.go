// Package httpapi serves the query and ingestion ports as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-discover/internal/logger"
	"github.com/custodia-labs/sercha-discover/internal/metrics"
)

// OwnerHeader carries the acting owner. Authentication happens upstream.
const OwnerHeader = "X-Owner-ID"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("httpapi: query service is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Query  driving.QueryService
	Ingest driving.IngestService
	Source driving.SourceService
}

// Config configures the API server.
type Config struct {
	// DefaultOwnerID is used when a request has no owner header.
	DefaultOwnerID string

	// RequestTimeout bounds each API request.
	RequestTimeout time.Duration

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler

	// Ready backs /healthz. Nil reports healthy.
	Ready func(ctx context.Context) error
}

// Server is the HTTP API.
type Server struct {
	ports  Ports
	cfg    Config
	router chi.Router
}

// NewServer builds the router.
func NewServer(ports Ports, cfg Config) (*Server, error) {
	if ports.Query == nil {
		return nil, ErrMissingQueryService
	}
	if cfg.DefaultOwnerID == "" {
		cfg.DefaultOwnerID = "local"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = time.Minute
	}

	s := &Server{ports: ports, cfg: cfg}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if s.cfg.MCP != nil {
		r.Mount("/mcp", s.cfg.MCP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/search", s.handleSearch)
		r.Get("/providers/options", s.handleProviderOptions)
		r.Get("/providers/status", s.handleProviderStatus)
		r.Get("/sources", s.handleListSources)

		if s.ports.Ingest != nil {
			r.Post("/ingest", s.handleQueueIngest)
			r.Get("/ingest/jobs/{jobID}", s.handleGetIngestJob)
		}
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.L().Info("http api listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
