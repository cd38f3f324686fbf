package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider, summariser, subtitle API and
output settings.

Settings are stored in ~/.recap/config.toml. Environment variables
(RECAP_MODEL, RECAP_TOKEN_BUDGET, RECAP_API_URL and the provider API key
variables) override the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to summarise subtitles.`,
	RunE:  runSettingsLLM,
}

var settingsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Configure the summariser",
	Long: `Configure the token budget, summary mode and reduction strategy.

Summary modes:
  independent - chunks are summarised concurrently with no shared context
  chained     - chunks are summarised in order, each seeing the previous summary`,
	RunE: runSettingsSummary,
}

var settingsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Configure the subtitle API",
	RunE:  runSettingsFetch,
}

var settingsOutputCmd = &cobra.Command{
	Use:   "output",
	Short: "Configure where descriptions are saved",
	RunE:  runSettingsOutput,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsSummaryCmd)
	settingsCmd.AddCommand(settingsFetchCmd)
	settingsCmd.AddCommand(settingsOutputCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set, or set %s)\n", settings.LLM.Provider.APIKeyEnv())
		}
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Summary]")
	cmd.Printf("  Token budget: %d\n", settings.Summary.TokenBudget)
	cmd.Printf("  Max output tokens: %d\n", settings.Summary.MaxOutputTokens)
	cmd.Printf("  Mode: %s\n", settings.Summary.Mode.Description())
	cmd.Printf("  Reduction: %s\n", settings.Summary.Reduction)
	cmd.Printf("  Splitter: %s\n", settings.Summary.Splitter)
	cmd.Printf("  Max concurrency: %s\n", unlimitedIfZero(settings.Summary.MaxConcurrency))
	cmd.Printf("  Max passes: %d\n", settings.Summary.MaxPasses)
	if settings.Summary.RequestsPerSecond > 0 {
		cmd.Printf("  Requests per second: %g\n", settings.Summary.RequestsPerSecond)
	} else {
		cmd.Printf("  Requests per second: unlimited\n")
	}
	cmd.Println()

	cmd.Println("[Fetch]")
	cmd.Printf("  API URL: %s\n", settings.Fetch.APIURL)
	cmd.Printf("  Limit: %d\n", settings.Fetch.Limit)
	cmd.Printf("  Timeout: %s\n", settings.Fetch.Timeout)
	cmd.Println()

	cmd.Println("[Output]")
	cmd.Printf("  Save to: %s\n", settings.Output.SaveTo)
	cmd.Printf("  Destination: %s\n", settings.Output.Destination)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'recap settings llm' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

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

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

func runSettingsSummary(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	current := settings.Summary
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Summariser Settings")
	cmd.Println("-------------------")
	summary := current
	summary.TokenBudget = promptInt(cmd, reader, "Token budget", current.TokenBudget)
	summary.MaxOutputTokens = promptInt(cmd, reader, "Max output tokens", current.MaxOutputTokens)

	modes := domain.AllSummaryModes()
	cmd.Println("\nSummary mode:")
	for i, m := range modes {
		cmd.Printf("  %d. %s\n", i+1, m.Description())
	}
	cmd.Printf("Enter choice [%d]: ", indexOf(modes, current.Mode))
	summary.Mode = modes[parseChoice(readLine(reader), len(modes), indexOf(modes, current.Mode))-1]

	reductions := []domain.ReductionStrategy{domain.ReductionRechunk, domain.ReductionAtomic}
	cmd.Println("\nReduction strategy:")
	cmd.Println("  1. rechunk (join all video summaries, then split)")
	cmd.Println("  2. atomic (send each video summary on its own)")
	cmd.Printf("Enter choice [%d]: ", indexOf(reductions, current.Reduction))
	summary.Reduction = reductions[parseChoice(readLine(reader), len(reductions), indexOf(reductions, current.Reduction))-1]

	splitters := []domain.SplitterKind{domain.SplitterTokens, domain.SplitterWords}
	cmd.Println("\nSplitter:")
	cmd.Println("  1. tokens (model tokenizer, downloaded on first use)")
	cmd.Println("  2. words (whitespace words, budget counted in characters)")
	cmd.Printf("Enter choice [%d]: ", indexOf(splitters, current.Splitter))
	summary.Splitter = splitters[parseChoice(readLine(reader), len(splitters), indexOf(splitters, current.Splitter))-1]

	summary.MaxConcurrency = promptInt(cmd, reader, "Max concurrent LLM calls (0 = unlimited)", current.MaxConcurrency)
	summary.MaxPasses = promptInt(cmd, reader, "Max channel passes", current.MaxPasses)
	summary.RequestsPerSecond = promptFloat(cmd, reader, "Requests per second (0 = unlimited)", current.RequestsPerSecond)

	if err := settingsService.SetSummary(summary); err != nil {
		return fmt.Errorf("failed to save summary settings: %w", err)
	}
	cmd.Println("Summary settings saved.")
	return nil
}

func runSettingsFetch(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	current := settings.Fetch
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Subtitle API Settings")
	cmd.Println("---------------------")
	cmd.Println("The URL may contain {channel_id} and {limit}.")
	fetch := current
	fetch.APIURL = promptString(cmd, reader, "API URL", current.APIURL)
	fetch.Limit = promptInt(cmd, reader, "Videos per channel", current.Limit)
	seconds := promptInt(cmd, reader, "Timeout in seconds", int(current.Timeout/time.Second))
	fetch.Timeout = time.Duration(seconds) * time.Second

	if err := settingsService.SetFetch(fetch); err != nil {
		return fmt.Errorf("failed to save fetch settings: %w", err)
	}
	cmd.Println("Fetch settings saved.")
	return nil
}

func runSettingsOutput(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	current := settings.Output
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Save Target")
	targets := domain.AllSaveTargets()
	for i, t := range targets {
		cmd.Printf("  %d. %s\n", i+1, t)
	}
	cmd.Printf("\nEnter choice [%d]: ", indexOf(targets, current.SaveTo))
	target := targets[parseChoice(readLine(reader), len(targets), indexOf(targets, current.SaveTo))-1]

	destination := current.Destination
	if target != current.SaveTo {
		destination = ""
	}
	output := domain.OutputSettings{
		SaveTo:      target,
		Destination: promptString(cmd, reader, "Destination", destination),
	}

	if err := settingsService.SetOutput(output); err != nil {
		return fmt.Errorf("failed to save output settings: %w", err)
	}
	cmd.Printf("Descriptions will be saved to %s:%s\n", output.SaveTo, output.Destination)
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

func promptString(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	if current != "" {
		cmd.Printf("%s [%s]: ", label, current)
	} else {
		cmd.Printf("%s: ", label)
	}
	if input := readLine(reader); input != "" {
		return input
	}
	return current
}

func promptInt(cmd *cobra.Command, reader *bufio.Reader, label string, current int) int {
	cmd.Printf("%s [%d]: ", label, current)
	val, err := strconv.Atoi(readLine(reader))
	if err != nil {
		return current
	}
	return val
}

func promptFloat(cmd *cobra.Command, reader *bufio.Reader, label string, current float64) float64 {
	cmd.Printf("%s [%g]: ", label, current)
	val, err := strconv.ParseFloat(readLine(reader), 64)
	if err != nil {
		return current
	}
	return val
}

// indexOf returns the 1-based position of v in values, or 1.
func indexOf[T comparable](values []T, v T) int {
	for i, x := range values {
		if x == v {
			return i + 1
		}
	}
	return 1
}

func unlimitedIfZero(n int) string {
	if n <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

// readPassword reads without echo when in is a terminal and falls back to
// a plain line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
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
