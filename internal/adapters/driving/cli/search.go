package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-discover/internal/adapters/driving/dto"
	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

var (
	searchLimit           int
	searchMaxExternal     int
	searchProvider        string
	searchNoExternal      bool
	searchPersist         string
	searchPersistExternal bool
	searchTimeRange       string
	searchLanguage        string
	searchEngines         []string
	searchJSON            bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored items and external providers",
	Long: `Runs the query against your stored items and an external web provider in
parallel and fuses both rankings with reciprocal rank fusion.

External hits can be ingested right away with --persist, or later with
"discover ingest queue" using the session id printed with the results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.IntVarP(&searchLimit, "limit", "n", 0, "maximum fused results (0 = configured default)")
	f.IntVar(&searchMaxExternal, "max-external", 0, "external results to request (0 = configured default)")
	f.StringVarP(&searchProvider, "provider", "p", "auto", "external provider to use, or auto")
	f.BoolVar(&searchNoExternal, "no-external", false, "search stored items only")
	f.StringVar(&searchPersist, "persist", "", "ingest every external hit: snippet or enriched")
	f.BoolVar(&searchPersistExternal, "persist-external", false, "ingest every external hit as snippets")
	f.StringVar(&searchTimeRange, "time-range", "", "restrict external results to day, week, month or year")
	f.StringVar(&searchLanguage, "language", "", "external result language, such as en")
	f.StringSliceVar(&searchEngines, "engines", nil, "meta-search engines to restrict to")
	f.BoolVar(&searchJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if services.Query == nil {
		return fmt.Errorf("search: %w", errNotConfigured)
	}

	includeExternal := !searchNoExternal
	req, err := dto.SearchRequest{
		Query:              strings.Join(args, " "),
		IncludeExternal:    &includeExternal,
		PersistMode:        searchPersist,
		PersistExternal:    searchPersistExternal,
		Provider:           searchProvider,
		MaxExternalResults: searchMaxExternal,
		Limit:              searchLimit,
		TimeRange:          searchTimeRange,
		Language:           searchLanguage,
		Engines:            searchEngines,
	}.ToDomain(owner())
	if err != nil {
		return err
	}

	resp, err := services.Query.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		if err := printJSON(cmd, dto.FromSearchResponse(resp)); err != nil {
			return err
		}
	} else {
		printSearchResponse(cmd, resp)
	}

	if resp.IngestJobID != "" && services.Ingest != nil {
		if !searchJSON {
			cmd.Println()
		}
		if err := services.Ingest.Drain(cmd.Context()); err != nil {
			return fmt.Errorf("waiting for ingest job %s: %w", resp.IngestJobID, err)
		}
		if !searchJSON {
			job, err := services.Ingest.GetIngestJob(cmd.Context(), owner(), resp.IngestJobID)
			if err != nil {
				return fmt.Errorf("failed to get job %s: %w", resp.IngestJobID, err)
			}
			printJob(cmd, job)
		}
	}
	return nil
}

func printSearchResponse(cmd *cobra.Command, resp *domain.SearchResponse) {
	if resp.Summary != "" {
		cmd.Println(resp.Summary)
		cmd.Println()
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Results (%d internal, %d external):\n\n", resp.InternalCount, resp.ExternalCount)
	for i := range resp.Results {
		h := &resp.Results[i]
		title := h.Title
		if title == "" {
			title = h.URL
		}
		cmd.Printf("  [%d] %s (%.4f) %s\n", i+1, title, h.Score, originLabel(h.Origins))
		cmd.Printf("      %s\n", h.URL)
		if h.Snippet != "" {
			cmd.Printf("      %s\n", truncate(h.Snippet, 160))
		}
		cmd.Println()
	}

	if resp.ProviderUsed != "" {
		via := resp.ProviderUsed
		if resp.FallbackUsed {
			via += " (fallback)"
		}
		cmd.Printf("External results via %s\n", via)
	}
	if resp.SessionID != "" {
		cmd.Printf("Session: %s\n", resp.SessionID)
	}
	if resp.IngestJobID != "" {
		cmd.Printf("Ingest job: %s\n", resp.IngestJobID)
	}
}

func originLabel(origins []domain.Origin) string {
	labels := make([]string, len(origins))
	for i, o := range origins {
		labels[i] = o.String()
	}
	return "[" + strings.Join(labels, "+") + "]"
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
