// Package cli provides the discover command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-discover/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// version is set by SetVersion from build flags.
var version = "dev"

// Services holds what the commands call. main sets it before Execute.
type Services struct {
	Query     driving.QueryService
	Ingest    driving.IngestService
	Source    driving.SourceService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	// SchedulerEnabled starts the scheduler in long-running commands.
	SchedulerEnabled bool

	// OwnerID is the configured owner, overridden by --owner.
	OwnerID string

	// SettingKeys lists the keys accepted by "settings set".
	SettingKeys []string

	// Ready backs the HTTP health check.
	Ready func(ctx context.Context) error

	// WatchConfig watches the config file until ctx is done, calling
	// onChange after each write.
	WatchConfig func(ctx context.Context, onChange func()) error

	// Reload re-applies settings after the config file changes.
	Reload func()
}

var services = &Services{}

var (
	verbose   bool
	ownerFlag string
)

var errNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "discover",
	Short: "Hybrid search over your corpus and the web",
	Long: `discover searches your stored items and external web providers in one
query, fuses both rankings, and ingests the external hits you pick back into
the corpus.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if verbose {
			z, err := logger.NewZap(true)
			if err != nil {
				return err
			}
			logger.SetZap(z)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "owner id to act for (defaults to the configured owner)")
}

// SetServices installs the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	services = s
}

// SetVersion sets the version printed by "discover version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// owner resolves the owner for this invocation.
func owner() string {
	if ownerFlag != "" {
		return ownerFlag
	}
	if services.OwnerID != "" {
		return services.OwnerID
	}
	return "local"
}

// installStructuredLogger gives long-running commands a zap logger.
func installStructuredLogger() error {
	z, err := logger.NewZap(verbose)
	if err != nil {
		return err
	}
	logger.SetZap(z)
	return nil
}
