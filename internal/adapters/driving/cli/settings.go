package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search, provider, ingestion and AI settings. Use
subcommands to change single values or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keys accepted by set",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  discover settings set providers.default searxng
  discover settings set providers.searxng.base_url http://localhost:8888
  discover settings set ingest.min_quality 0.4

Run 'discover settings list' for every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsModeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Set search mode",
	Long: `Set the search mode to control how searches are performed.

Available modes:
  text_only    - Keyword search only (fastest, no setup required)
  hybrid       - Text + semantic vector search (requires embedding provider)
  llm_assisted - Text + LLM query expansion (requires LLM provider)
  full         - Text + semantic + LLM (requires both providers)`,
	RunE: runSettingsMode,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider for semantic search.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider for query expansion and conversational search.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsModeCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	settings, err := services.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	cmd.Printf("Owner: %s\n\n", settings.OwnerID)

	cmd.Println("[Search]")
	cmd.Printf("  Mode: %s\n", settings.Search.Mode.Description())
	cmd.Printf("  Result limit: %d\n", settings.Search.ResultLimit)
	cmd.Printf("  Timeout: %s\n", settings.Search.AggregateTimeout)
	cmd.Printf("  RRF k: %d\n", settings.Search.RRFK)
	cmd.Printf("  Summary top N: %d\n", settings.Search.SummaryTopN)
	cmd.Println()

	p := settings.Providers
	cmd.Println("[Providers]")
	cmd.Printf("  Default: %s  Fallback: %s\n", p.Default, p.Fallback)
	cmd.Printf("  Priority: %s\n", strings.Join(p.Priority, ", "))
	cmd.Printf("  Timeout: %s  Default limit: %d\n", p.Timeout, p.DefaultLimit)
	cmd.Printf("  Breaker: %d failures, %s cooldown\n", p.BreakerFailures, p.BreakerCooldown)
	cmd.Printf("  Tavily API key: %s\n", secretStatus(p.TavilyAPIKey))
	cmd.Printf("  SearXNG: %s\n", valueOrUnset(p.SearXNGBaseURL))
	cmd.Printf("  Google: key %s, engine %s\n", secretStatus(p.GoogleAPIKey), valueOrUnset(p.GoogleEngineID))
	cmd.Printf("  GitHub token: %s\n", secretStatus(p.GitHubToken))
	cmd.Println()

	in := settings.Ingest
	cmd.Println("[Ingest]")
	cmd.Printf("  Workers: %d  Retries: %d (backoff %s)\n", in.Workers, in.RetryAttempts, in.RetryBackoff)
	cmd.Printf("  Per-domain interval: %s  Fetch timeout: %s\n", in.DomainInterval, in.FetchTimeout)
	cmd.Printf("  Minimum quality: %.2f\n", in.MinQualityScore)
	cmd.Println()

	cmd.Println("[Sessions]")
	cmd.Printf("  Backend: %s", settings.Session.Backend)
	if settings.Session.Backend == domain.SessionBackendRedis {
		cmd.Printf(" (%s)", settings.Session.RedisAddr)
	}
	cmd.Printf("\n  TTL: %s\n", settings.Session.TTL)
	cmd.Println()

	cmd.Println("[Embedding]")
	printAIProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printAIProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	if err := services.Settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'discover settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printAIProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	if provider == "" {
		cmd.Println("  Provider: (none)")
		return
	}
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", secretStatus(apiKey))
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	for _, key := range services.SettingKeys {
		cmd.Println(key)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if services.Settings == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	if err := services.Settings.SetValue(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s updated\n", args[0])
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	cmd.Println("Discover Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Search Mode
	cmd.Println("Step 1: Select Search Mode")
	cmd.Println("--------------------------")
	modes := domain.AllSearchModes()
	for i, mode := range modes {
		cmd.Printf("  %d. %s\n", i+1, mode.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	modeIdx := parseChoice(input, len(modes), 1)
	selectedMode := modes[modeIdx-1]

	if err := services.Settings.SetSearchMode(selectedMode); err != nil {
		return fmt.Errorf("failed to set search mode: %w", err)
	}
	cmd.Printf("Set search mode to: %s\n\n", selectedMode.Description())

	// Step 2: Configure Embedding Provider (if needed)
	if services.Settings.RequiresEmbedding() {
		cmd.Println("Step 2: Configure Embedding Provider")
		cmd.Println("------------------------------------")
		cmd.Println("Your search mode requires semantic search. Please configure an embedding provider.")
		cmd.Println()

		if err := configureEmbeddingProvider(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Step 2: Embedding Provider (skipped)")
		cmd.Println("------------------------------------")
		cmd.Println("Not required for text-only search mode.")
	}

	// Step 3: Configure LLM Provider (if needed)
	if services.Settings.RequiresLLM() {
		cmd.Println("Step 3: Configure LLM Provider")
		cmd.Println("------------------------------")
		cmd.Println("Your search mode requires an LLM. Please configure an LLM provider.")
		cmd.Println()

		if err := configureLLMProvider(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Step 3: LLM Provider (skipped)")
		cmd.Println("------------------------------")
		cmd.Println("Not required for current search mode.")
	}

	cmd.Println("Step 4: External Provider")
	cmd.Println("-------------------------")
	if err := configureExternalProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := services.Settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsMode(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Search Mode")
	cmd.Println("------------------")
	modes := domain.AllSearchModes()
	for i, mode := range modes {
		cmd.Printf("  %d. %s\n", i+1, mode.Description())
	}
	cmd.Print("\nEnter choice: ")
	input := readLine(reader)
	idx := parseChoice(input, len(modes), 0)
	if idx == 0 {
		return errors.New("invalid selection")
	}

	selectedMode := modes[idx-1]
	if err := services.Settings.SetSearchMode(selectedMode); err != nil {
		return fmt.Errorf("failed to set search mode: %w", err)
	}

	cmd.Printf("Search mode set to: %s\n", selectedMode.Description())

	// Check if additional configuration is needed
	if selectedMode.RequiresEmbedding() {
		settings, _ := services.Settings.Get() //nolint:errcheck // Best-effort check
		if settings != nil && !settings.Embedding.IsConfigured() {
			cmd.Println("\nNote: This mode requires an embedding provider.")
			cmd.Println("Run 'discover settings embedding' to configure.")
		}
	}
	if selectedMode.RequiresLLM() {
		settings, _ := services.Settings.Get() //nolint:errcheck // Best-effort check
		if settings != nil && !settings.LLM.IsConfigured() {
			cmd.Println("\nNote: This mode requires an LLM provider.")
			cmd.Println("Run 'discover settings llm' to configure.")
		}
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := services.Settings.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := services.Settings.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := services.Settings.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := services.Settings.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

type providerField struct {
	key    string
	label  string
	secret bool
}

// externalProviders are the wizard's provider choices with the settings
// each one needs.
var externalProviders = []struct {
	name   string
	label  string
	fields []providerField
}{
	{"tavily", "Tavily (API key)", []providerField{{"providers.tavily.api_key", "API key", true}}},
	{"searxng", "SearXNG (self-hosted meta-search)", []providerField{{"providers.searxng.base_url", "Base URL", false}}},
	{"google", "Google Programmable Search", []providerField{
		{"providers.google.api_key", "API key", true},
		{"providers.google.engine_id", "Engine ID", false},
	}},
	{"github", "GitHub repository search (token)", []providerField{{"providers.github.token", "Token", true}}},
}

func configureExternalProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select the default external provider")
	for i, p := range externalProviders {
		cmd.Printf("  %d. %s\n", i+1, p.label)
	}
	cmd.Printf("  %d. Skip\n", len(externalProviders)+1)
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(externalProviders)+1, 1)
	if idx == len(externalProviders)+1 {
		cmd.Println("Skipped.")
		cmd.Println()
		return nil
	}
	selected := externalProviders[idx-1]

	for _, field := range selected.fields {
		cmd.Printf("Enter %s: ", field.label)
		var value string
		if field.secret {
			value = readPassword(reader)
			cmd.Println()
		} else {
			value = readLine(reader)
		}
		if value == "" {
			return fmt.Errorf("%s is required for %s", field.label, selected.name)
		}
		if err := services.Settings.SetValue(field.key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", field.key, err)
		}
	}
	if err := services.Settings.SetValue("providers.default", selected.name); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}
	cmd.Printf("Default provider set to: %s\n\n", selected.name)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func secretStatus(v string) string {
	if v == "" {
		return "(not set)"
	}
	return maskAPIKey(v)
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
