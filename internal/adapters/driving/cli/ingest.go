package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

var (
	ingestMode  string
	ingestWatch bool
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest external search results into the corpus",
}

var ingestQueueCmd = &cobra.Command{
	Use:   "queue <session-id> [url...]",
	Short: "Queue external hits of a search session for ingestion",
	Long: `Queue external hits from a search session for ingestion. With no URLs every
external hit of the session is queued.

Sessions live in the session store. With the default in-memory store a
session only exists inside the process that ran the search, so use
"search --persist", the TUI, the HTTP API, or the redis session backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngestQueue,
}

var ingestJobCmd = &cobra.Command{
	Use:   "job <job-id>",
	Short: "Show an ingestion job",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestJob,
}

var ingestWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Watch an ingestion job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestWatch,
}

func init() {
	ingestQueueCmd.Flags().StringVarP(&ingestMode, "mode", "m", "snippet", "persist mode: snippet or enriched")
	ingestQueueCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "show job progress while it runs")
	ingestJobCmd.Flags().BoolVar(&ingestJSON, "json", false, "output as JSON")
	ingestCmd.AddCommand(ingestQueueCmd)
	ingestCmd.AddCommand(ingestJobCmd)
	ingestCmd.AddCommand(ingestWatchCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestQueue(cmd *cobra.Command, args []string) error {
	if services.Ingest == nil {
		return fmt.Errorf("ingest: %w", errNotConfigured)
	}

	req, err := dto.IngestRequest{
		SessionID:    args[0],
		SelectedURLs: args[1:],
		PersistMode:  ingestMode,
	}.ToDomain(owner())
	if err != nil {
		return err
	}

	receipt, err := services.Ingest.QueueIngest(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to queue ingestion: %w", err)
	}
	cmd.Printf("Queued %d items as job %s (%s)\n", receipt.QueuedCount, receipt.JobID, receipt.PersistMode)

	if ingestWatch && isTerminal() {
		if _, err := watchJob(cmd, receipt.JobID); err != nil {
			return err
		}
	}
	return waitForJob(cmd, receipt.JobID)
}

func runIngestJob(cmd *cobra.Command, args []string) error {
	if services.Ingest == nil {
		return fmt.Errorf("ingest: %w", errNotConfigured)
	}
	job, err := services.Ingest.GetIngestJob(cmd.Context(), owner(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get job %s: %w", args[0], err)
	}
	if ingestJSON {
		return printJSON(cmd, dto.FromIngestJob(job))
	}
	printJob(cmd, job)
	return nil
}

func runIngestWatch(cmd *cobra.Command, args []string) error {
	if services.Ingest == nil {
		return fmt.Errorf("ingest: %w", errNotConfigured)
	}
	job, err := watchJob(cmd, args[0])
	if err != nil {
		return err
	}
	if job != nil {
		printJob(cmd, job)
	}
	return nil
}

func watchJob(cmd *cobra.Command, jobID string) (*domain.IngestJob, error) {
	w, err := tui.NewJobWatcher(services.Ingest, owner(), jobID)
	if err != nil {
		return nil, err
	}
	job, err := w.Run(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("watching job %s: %w", jobID, err)
	}
	return job, nil
}

// waitForJob keeps the process alive until in-process workers finish,
// then prints the final job state.
func waitForJob(cmd *cobra.Command, jobID string) error {
	if err := services.Ingest.Drain(cmd.Context()); err != nil {
		return fmt.Errorf("waiting for job %s: %w", jobID, err)
	}
	job, err := services.Ingest.GetIngestJob(cmd.Context(), owner(), jobID)
	if err != nil {
		return fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	printJob(cmd, job)
	return nil
}

func printJob(cmd *cobra.Command, job *domain.IngestJob) {
	cmd.Printf("Job %s: %s\n", job.ID, job.Status)
	cmd.Printf("  Provider: %s  Mode: %s\n", job.ProviderName, job.PersistMode)
	cmd.Printf("  Processed: %d/%d  Stored: %d  Duplicates: %d  Failed: %d (%d low quality)\n",
		job.ProcessedItems, job.TotalItems, job.StoredItems, job.DuplicateItems, job.FailedItems, job.RejectedItems)
	cmd.Printf("  Retries: %d  Average quality: %.3f\n", job.RetryCount, job.AverageQualityScore)
	for _, f := range job.Failures {
		cmd.Printf("  - %s %s", f.Reason, f.URL)
		if f.Detail != "" {
			cmd.Printf(": %s", f.Detail)
		}
		cmd.Println()
	}
	if job.ErrorMessage != "" {
		cmd.Printf("  Error: %s\n", job.ErrorMessage)
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
