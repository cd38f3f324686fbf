package driving

import "github.com/custodia-labs/recap-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, including environment
	// overrides.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetSummary updates the summariser settings.
	SetSummary(summary domain.SummarizerSettings) error

	// SetFetch updates the subtitle API settings.
	SetFetch(fetch domain.FetchSettings) error

	// SetOutput updates the default save target and destination.
	SetOutput(output domain.OutputSettings) error

	// Validate checks if current settings can run a summarisation.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error

	// DefaultChannelID returns the channel used when none is given.
	DefaultChannelID() string
}
