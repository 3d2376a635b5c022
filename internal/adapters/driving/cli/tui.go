package cli

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui"
)

var (
	tuiProvider     string
	tuiInternalOnly bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui [query]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI.

Search your corpus and the web, mark external hits and queue them for
ingestion, then watch the job run.

Controls:
  ↑/k, ↓/j  Navigate results
  Enter     Search / select
  Space     Mark an external hit
  a         Mark all external hits
  m         Toggle snippet / enriched ingestion
  i         Ingest marked hits
  n         New search
  Esc       Back
  q         Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiProvider, "provider", "p", "", "external provider to pin")
	tuiCmd.Flags().BoolVar(&tuiInternalOnly, "no-external", false, "search stored items only")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("tui panic: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Query:   services.Query,
		Ingest:  services.Ingest,
		Source:  services.Source,
		OwnerID: owner(),
	}, tui.Options{
		Provider:     tuiProvider,
		InternalOnly: tuiInternalOnly,
		Query:        strings.Join(args, " "),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	// The TUI is long-running and runs queued ingestion in-process.
	stop := startBackground(cmd.Context())
	defer stop()

	if err := app.Run(cmd.Context()); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
