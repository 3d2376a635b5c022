package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources your items come from",
	Long: `List native feeds and the virtual sources created for each external
provider you have ingested from.`,
	Args: cobra.NoArgs,
	RunE: runSourcesList,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show <source-id>",
	Short: "Show one source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

func init() {
	sourcesCmd.PersistentFlags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	sourcesCmd.AddCommand(sourcesShowCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if services.Source == nil {
		return fmt.Errorf("sources: %w", errNotConfigured)
	}
	sources, err := services.Source.List(cmd.Context(), owner())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if sourcesJSON {
		return printJSON(cmd, dto.FromSources(sources))
	}
	if len(sources) == 0 {
		cmd.Println("No sources yet.")
		return nil
	}
	for i := range sources {
		printSource(cmd, &sources[i])
	}
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	if services.Source == nil {
		return fmt.Errorf("sources: %w", errNotConfigured)
	}
	src, err := services.Source.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get source %s: %w", args[0], err)
	}
	// Sources of other owners are reported as missing.
	if src.OwnerID != owner() {
		return fmt.Errorf("failed to get source %s: %w", args[0], domain.ErrNotFound)
	}
	if sourcesJSON {
		return printJSON(cmd, dto.FromSources([]domain.Source{*src})[0])
	}
	printSource(cmd, src)
	cmd.Printf("  Created: %s\n", src.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}

func printSource(cmd *cobra.Command, src *domain.Source) {
	cmd.Printf("%-8s %s  (%d items)\n", src.Kind, src.Name, src.ItemCount)
	cmd.Printf("         id: %s\n", src.ID)
	cmd.Printf("         url: %s\n", src.URL)
	if src.Collectable() {
		cmd.Printf("         refresh: every %s\n", src.RefreshInterval)
	}
}
