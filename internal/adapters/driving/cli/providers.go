package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
)

var (
	providersJSON    bool
	providersRefresh bool
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect external search providers",
}

var providersOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List providers and the filters they support",
	Args:  cobra.NoArgs,
	RunE:  runProvidersOptions,
}

var providersStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider health",
	Long: `Show the last known health of every provider. With --refresh each provider
is probed before reporting.`,
	Args: cobra.NoArgs,
	RunE: runProvidersStatus,
}

func init() {
	providersCmd.PersistentFlags().BoolVar(&providersJSON, "json", false, "output as JSON")
	providersStatusCmd.Flags().BoolVar(&providersRefresh, "refresh", false, "probe every provider first")
	providersCmd.AddCommand(providersOptionsCmd)
	providersCmd.AddCommand(providersStatusCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProvidersOptions(cmd *cobra.Command, _ []string) error {
	if services.Query == nil {
		return fmt.Errorf("providers: %w", errNotConfigured)
	}
	report, err := services.Query.ProviderOptions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get provider options: %w", err)
	}
	out := dto.FromProviderOptions(report)
	if providersJSON {
		return printJSON(cmd, out)
	}

	cmd.Printf("Default: %s  Fallback: %s\n\n", out.DefaultProvider, out.FallbackProvider)
	for _, p := range out.Providers {
		state := "available"
		if !p.Available {
			state = "not configured"
		}
		cmd.Printf("  %-10s %s\n", p.Name, state)
		var filters []string
		if p.SupportedFilters.Engines {
			filters = append(filters, "engines")
		}
		if p.SupportedFilters.TimeRange {
			filters = append(filters, "time range")
		}
		if p.SupportedFilters.Language {
			filters = append(filters, "language")
		}
		if len(filters) > 0 {
			cmd.Printf("             filters: %s\n", strings.Join(filters, ", "))
		}
		if len(p.Engines) > 0 {
			cmd.Printf("             engines: %s\n", strings.Join(p.Engines, ", "))
		}
	}
	return nil
}

func runProvidersStatus(cmd *cobra.Command, _ []string) error {
	if services.Query == nil {
		return fmt.Errorf("providers: %w", errNotConfigured)
	}
	report, err := services.Query.ProviderStatus(cmd.Context(), providersRefresh)
	if err != nil {
		return fmt.Errorf("failed to get provider status: %w", err)
	}
	out := dto.FromProviderStatus(report)
	if providersJSON {
		return printJSON(cmd, out)
	}

	cmd.Printf("Default: %s  Fallback: %s  Healthy: %d/%d\n\n",
		out.DefaultProvider, out.FallbackProvider, out.HealthyProviderCount, len(out.Providers))
	for _, p := range out.Providers {
		line := fmt.Sprintf("  %-10s %-12s", p.Name, p.Health)
		if p.LatencyMs > 0 {
			line += fmt.Sprintf(" %4dms", p.LatencyMs)
		}
		if p.BreakerState != "" {
			line += " breaker " + p.BreakerState
		}
		if p.Message != "" {
			line += "  " + p.Message
		}
		cmd.Println(line)
	}
	return nil
}
