package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/mcp"
)

var (
	serveAddr  string
	serveNoMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the JSON HTTP API with the background scheduler. The MCP streamable
HTTP transport is mounted at /mcp, Prometheus metrics at /metrics and a
health check at /healthz.

Requests act for the owner in the X-Owner-ID header, or the configured owner
when the header is absent. Changes to the config file are applied without a
restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP transport")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := installStructuredLogger(); err != nil {
		return err
	}

	cfg := httpapi.Config{
		DefaultOwnerID: owner(),
		Ready:          services.Ready,
	}
	if !serveNoMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{
			Query:   services.Query,
			Ingest:  services.Ingest,
			Source:  services.Source,
			OwnerID: owner(),
		})
		if err != nil {
			return err
		}
		cfg.MCP = mcpServer.Handler()
	}

	api, err := httpapi.NewServer(httpapi.Ports{
		Query:  services.Query,
		Ingest: services.Ingest,
		Source: services.Source,
	}, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stop := startBackground(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(gctx, serveAddr)
	})
	return g.Wait()
}
