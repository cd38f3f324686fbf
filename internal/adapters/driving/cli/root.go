// Package cli provides the cobra command tree for the recap binary.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/app"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// PromptManager is the prompt store used by the prompts command.
type PromptManager interface {
	driven.PromptStore

	// Reset restores the named prompts to their defaults, or every
	// prompt when no name is given.
	Reset(names ...string) error

	// Path returns the file backing a prompt.
	Path(name string) string
}

var (
	version = "dev"
	verbose bool

	settingsService driving.SettingsService
	promptStore     PromptManager
	appOptions      []app.Option

	// newPipeline builds the services for one command run.
	newPipeline = app.New
)

var rootCmd = &cobra.Command{
	Use:   "recap",
	Short: "Summarise a channel's videos into one description",
	Long: `recap fetches the subtitles of a channel's videos, summarises each
video within a token budget, and condenses the summaries into a single
channel description.

Configure an LLM provider first with 'recap settings llm'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print progress to stderr")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version printed by 'recap version'.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service used by every command.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetPromptStore sets the prompt store.
func SetPromptStore(p PromptManager) {
	promptStore = p
}

// SetAppOptions adds options applied whenever a pipeline is built.
func SetAppOptions(opts ...app.Option) {
	appOptions = opts
}

func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func buildPipeline(settings domain.AppSettings) (*app.Pipeline, error) {
	opts := []app.Option{app.WithLogger(logger.Default())}
	if promptStore != nil {
		opts = append(opts, app.WithPromptStore(promptStore))
	}
	opts = append(opts, appOptions...)
	return newPipeline(settings, opts...)
}

// summaryOverrides holds the --mode and --budget flags shared by the
// summarising commands.
type summaryOverrides struct {
	mode   string
	budget int
}

func (o *summaryOverrides) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.mode, "mode", "", "summary mode: independent or chained (default from settings)")
	cmd.Flags().IntVar(&o.budget, "budget", 0, "token budget per LLM call (default from settings)")
}

func (o *summaryOverrides) apply(settings *domain.AppSettings) error {
	if o.mode != "" {
		mode := domain.SummaryMode(o.mode)
		if !mode.IsValid() {
			return errors.New("invalid --mode: use independent or chained")
		}
		settings.Summary.Mode = mode
	}
	if o.budget < 0 {
		return errors.New("invalid --budget: must be positive")
	}
	if o.budget > 0 {
		settings.Summary.TokenBudget = o.budget
	}
	return nil
}

func (o *summaryOverrides) reset() {
	o.mode = ""
	o.budget = 0
}
