package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keySummaryBudget     = "summary.token_budget"
	keySummaryMaxOutput  = "summary.max_output_tokens"
	keySummaryMode       = "summary.mode"
	keySummaryReduction  = "summary.reduction"
	keySummarySplitter   = "summary.splitter"
	keySummaryMaxConc    = "summary.max_concurrency"
	keySummaryMaxPasses  = "summary.max_passes"
	keySummaryRPS        = "summary.requests_per_second"
	keyFetchAPIURL       = "fetch.api_url"
	keyFetchLimit        = "fetch.limit"
	keyFetchTimeoutSecs  = "fetch.timeout_seconds"
	keyOutputSaveTo      = "output.save_to"
	keyOutputDestination = "output.destination"
)

// Environment overrides, applied on top of the config file.
const (
	EnvModel       = "RECAP_MODEL"
	EnvTokenBudget = "RECAP_TOKEN_BUDGET"
	EnvAPIURL      = "RECAP_API_URL"
	EnvChannelID   = "CHANNEL_ID"
)

// Legacy environment names, read when the names above are unset.
// EnvLegacyAPIKey only applies to the OpenAI provider.
const (
	EnvLegacyAPIKey    = "GPT_API_KEY"
	EnvLegacyModel     = "GPT_MODEL"
	EnvLegacyMaxTokens = "GPT_MAX_TOKENS"
	EnvLegacyAPIURL    = "API_URL"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv replaces os.Getenv for environment overrides.
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		s.getenv = getenv
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings, with environment overrides
// applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	timeout := defaults.Fetch.Timeout
	if secs := s.configStore.GetInt(keyFetchTimeoutSecs); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	return &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Summary: domain.SummarizerSettings{
			TokenBudget:       s.getInt(keySummaryBudget, defaults.Summary.TokenBudget),
			MaxOutputTokens:   s.getInt(keySummaryMaxOutput, defaults.Summary.MaxOutputTokens),
			Mode:              s.getMode(defaults.Summary.Mode),
			Reduction:         s.getReduction(defaults.Summary.Reduction),
			Splitter:          s.getSplitter(defaults.Summary.Splitter),
			MaxConcurrency:    s.getInt(keySummaryMaxConc, defaults.Summary.MaxConcurrency),
			MaxPasses:         s.getInt(keySummaryMaxPasses, defaults.Summary.MaxPasses),
			RequestsPerSecond: s.configStore.GetFloat(keySummaryRPS),
		},
		Fetch: domain.FetchSettings{
			APIURL:  s.getString(keyFetchAPIURL, defaults.Fetch.APIURL),
			Limit:   s.getInt(keyFetchLimit, defaults.Fetch.Limit),
			Timeout: timeout,
		},
		Output: domain.OutputSettings{
			SaveTo:      s.getSaveTarget(defaults.Output.SaveTo),
			Destination: s.getString(keyOutputDestination, defaults.Output.Destination),
		},
	}
}

func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if env := settings.LLM.Provider.APIKeyEnv(); env != "" {
		legacy := ""
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			legacy = EnvLegacyAPIKey
		}
		if key := s.lookupEnv(env, legacy); key != "" {
			settings.LLM.APIKey = key
		}
	}
	if model := s.lookupEnv(EnvModel, EnvLegacyModel); model != "" {
		settings.LLM.Model = model
	}
	if raw := s.lookupEnv(EnvTokenBudget, EnvLegacyMaxTokens); raw != "" {
		if budget, err := strconv.Atoi(raw); err == nil && budget > 0 {
			settings.Summary.TokenBudget = budget
		}
	}
	if url := s.lookupEnv(EnvAPIURL, EnvLegacyAPIURL); url != "" {
		settings.Fetch.APIURL = url
	}
}

// lookupEnv returns the first non-empty value among names.
func (s *SettingsService) lookupEnv(names ...string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v := s.getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// DefaultChannelID returns the channel from CHANNEL_ID, if set.
func (s *SettingsService) DefaultChannelID() string {
	return s.getenv(EnvChannelID)
}

// Save persists application settings. Environment overrides are never
// written back.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keySummaryBudget, settings.Summary.TokenBudget},
		{keySummaryMaxOutput, settings.Summary.MaxOutputTokens},
		{keySummaryMode, settings.Summary.Mode.String()},
		{keySummaryReduction, settings.Summary.Reduction.String()},
		{keySummarySplitter, settings.Summary.Splitter.String()},
		{keySummaryMaxConc, settings.Summary.MaxConcurrency},
		{keySummaryMaxPasses, settings.Summary.MaxPasses},
		{keySummaryRPS, settings.Summary.RequestsPerSecond},
		{keyFetchAPIURL, settings.Fetch.APIURL},
		{keyFetchLimit, settings.Fetch.Limit},
		{keyFetchTimeoutSecs, int(settings.Fetch.Timeout / time.Second)},
		{keyOutputSaveTo, settings.Output.SaveTo.String()},
		{keyOutputDestination, settings.Output.Destination},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetSummary updates the summariser settings. Zero mode and reduction keep
// their defaults.
func (s *SettingsService) SetSummary(summary domain.SummarizerSettings) error {
	defaults := domain.DefaultSummarizerSettings()
	if summary.Mode == "" {
		summary.Mode = defaults.Mode
	}
	if summary.Reduction == "" {
		summary.Reduction = defaults.Reduction
	}
	if summary.Splitter == "" {
		summary.Splitter = defaults.Splitter
	}
	if summary.MaxPasses <= 0 {
		summary.MaxPasses = defaults.MaxPasses
	}
	if err := validateSummary(summary); err != nil {
		return err
	}

	settings := s.stored()
	settings.Summary = summary
	return s.Save(settings)
}

// SetFetch updates the subtitle API settings.
func (s *SettingsService) SetFetch(fetch domain.FetchSettings) error {
	if fetch.APIURL == "" {
		return fmt.Errorf("%w: fetch api url is required", domain.ErrInvalidInput)
	}
	if fetch.Limit <= 0 {
		return fmt.Errorf("%w: fetch limit must be positive", domain.ErrInvalidInput)
	}
	if fetch.Timeout <= 0 {
		fetch.Timeout = domain.DefaultFetchTimeout
	}

	settings := s.stored()
	settings.Fetch = fetch
	return s.Save(settings)
}

// SetOutput updates the default save target and destination.
func (s *SettingsService) SetOutput(output domain.OutputSettings) error {
	if !output.SaveTo.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedSaveTarget, output.SaveTo)
	}
	if output.Destination == "" && output.SaveTo != domain.SaveTargetMemory {
		return fmt.Errorf("%w: destination is required for %s", domain.ErrInvalidInput, output.SaveTo)
	}

	settings := s.stored()
	settings.Output = output
	return s.Save(settings)
}

// Validate checks if current settings can run a summarisation.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.LLM.IsConfigured() {
		if settings.LLM.Provider.RequiresAPIKey() {
			return fmt.Errorf("%w: %s requires an API key (set %s or run 'recap settings llm')",
				domain.ErrLLMUnavailable, settings.LLM.Provider, settings.LLM.Provider.APIKeyEnv())
		}
		return fmt.Errorf("%w: provider %q", domain.ErrLLMUnavailable, settings.LLM.Provider)
	}
	if err := validateSummary(settings.Summary); err != nil {
		return err
	}
	if !settings.Output.SaveTo.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedSaveTarget, settings.Output.SaveTo)
	}
	return nil
}

func validateSummary(summary domain.SummarizerSettings) error {
	if summary.TokenBudget <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidBudget, summary.TokenBudget)
	}
	if summary.MaxOutputTokens < 0 {
		return fmt.Errorf("%w: max output tokens must not be negative", domain.ErrInvalidInput)
	}
	if !summary.Mode.IsValid() {
		return fmt.Errorf("%w: summary mode %q", domain.ErrUnsupportedType, summary.Mode)
	}
	if !summary.Reduction.IsValid() {
		return fmt.Errorf("%w: reduction strategy %q", domain.ErrUnsupportedType, summary.Reduction)
	}
	if !summary.Splitter.IsValid() {
		return fmt.Errorf("%w: splitter %q", domain.ErrUnsupportedType, summary.Splitter)
	}
	if summary.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMode(defaultVal domain.SummaryMode) domain.SummaryMode {
	mode := domain.SummaryMode(s.configStore.GetString(keySummaryMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getReduction(defaultVal domain.ReductionStrategy) domain.ReductionStrategy {
	r := domain.ReductionStrategy(s.configStore.GetString(keySummaryReduction))
	if !r.IsValid() {
		return defaultVal
	}
	return r
}

func (s *SettingsService) getSplitter(defaultVal domain.SplitterKind) domain.SplitterKind {
	k := domain.SplitterKind(s.configStore.GetString(keySummarySplitter))
	if !k.IsValid() {
		return defaultVal
	}
	return k
}

func (s *SettingsService) getSaveTarget(defaultVal domain.SaveTarget) domain.SaveTarget {
	t := domain.SaveTarget(s.configStore.GetString(keyOutputSaveTo))
	if !t.IsValid() {
		return defaultVal
	}
	return t
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
