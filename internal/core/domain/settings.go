package domain

import "time"

const unknownDescription = "Unknown"

// SummaryMode selects how chunk summaries within one reduction are scheduled.
type SummaryMode string

// Available summary modes.
const (
	// SummaryModeIndependent summarises every chunk concurrently with no
	// shared context.
	SummaryModeIndependent SummaryMode = "independent"

	// SummaryModeChained summarises chunks in order, passing each summary
	// to the next call as context.
	SummaryModeChained SummaryMode = "chained"
)

// IsValid returns true if the summary mode is recognised.
func (m SummaryMode) IsValid() bool {
	switch m {
	case SummaryModeIndependent, SummaryModeChained:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SummaryMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SummaryMode) Description() string {
	switch m {
	case SummaryModeIndependent:
		return "Independent (concurrent, no shared context)"
	case SummaryModeChained:
		return "Chained (sequential, previous summary as context)"
	default:
		return unknownDescription
	}
}

// SplitterKind selects how text is measured against the token budget.
type SplitterKind string

// Available splitters.
const (
	// SplitterTokens counts model tokens with the tokenizer for the LLM model.
	SplitterTokens SplitterKind = "tokens"

	// SplitterWords splits on whitespace and counts characters. It needs no
	// tokenizer data and is the fallback when one cannot be loaded.
	SplitterWords SplitterKind = "words"
)

// IsValid returns true if the splitter is recognised.
func (k SplitterKind) IsValid() bool {
	return k == SplitterTokens || k == SplitterWords
}

// String returns the string representation.
func (k SplitterKind) String() string {
	return string(k)
}

// ReductionStrategy selects how annotations enter the first channel pass.
type ReductionStrategy string

// Available reduction strategies.
const (
	// ReductionRechunk joins all annotations and re-splits them as one corpus.
	ReductionRechunk ReductionStrategy = "rechunk"

	// ReductionAtomic sends each annotation to the oracle as a single input.
	ReductionAtomic ReductionStrategy = "atomic"
)

// IsValid returns true if the strategy is recognised.
func (r ReductionStrategy) IsValid() bool {
	switch r {
	case ReductionRechunk, ReductionAtomic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r ReductionStrategy) String() string {
	return string(r)
}

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// APIKeyEnv returns the environment variable consulted for this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// SaveTarget identifies where a finished description is persisted.
type SaveTarget string

// Available save targets.
const (
	SaveTargetFile     SaveTarget = "file"
	SaveTargetSQLite   SaveTarget = "sqlite"
	SaveTargetPostgres SaveTarget = "postgres"
	SaveTargetMongoDB  SaveTarget = "mongodb"
	SaveTargetGCS      SaveTarget = "gcs"
	SaveTargetMemory   SaveTarget = "memory"
)

// IsValid returns true if the save target is recognised.
func (t SaveTarget) IsValid() bool {
	switch t {
	case SaveTargetFile, SaveTargetSQLite, SaveTargetPostgres,
		SaveTargetMongoDB, SaveTargetGCS, SaveTargetMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SaveTarget) String() string {
	return string(t)
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// SummarizerSettings controls the hierarchical summariser.
type SummarizerSettings struct {
	// TokenBudget is the maximum number of tokens sent per oracle call.
	TokenBudget int

	// MaxOutputTokens caps each oracle response.
	MaxOutputTokens int

	// Mode selects independent or chained chunk scheduling.
	Mode SummaryMode

	// Reduction selects how annotations enter the first channel pass.
	Reduction ReductionStrategy

	// Splitter selects token or word chunking.
	Splitter SplitterKind

	// MaxConcurrency bounds in-flight oracle calls in independent mode.
	// Zero or negative means unbounded.
	MaxConcurrency int

	// MaxPasses bounds collection-level reduction passes.
	MaxPasses int

	// RequestsPerSecond limits oracle calls. Zero disables limiting.
	RequestsPerSecond float64
}

// FetchSettings controls the subtitle API client.
type FetchSettings struct {
	// APIURL is a template containing {channel_id} and {limit}.
	APIURL string

	// Limit is the default number of videos to fetch.
	Limit int

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// OutputSettings controls where descriptions are saved.
type OutputSettings struct {
	SaveTo      SaveTarget
	Destination string
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM     LLMSettings
	Summary SummarizerSettings
	Fetch   FetchSettings
	Output  OutputSettings
}

// Default values.
const (
	DefaultTokenBudget     = 3000
	DefaultMaxOutputTokens = 500
	DefaultMaxConcurrency  = 4
	DefaultMaxPasses       = 8
	DefaultFetchLimit      = 10
	DefaultFetchTimeout    = 30 * time.Second
	DefaultAPIURL          = "http://localhost:8000/api/v1/channels/{channel_id}/videos?limit={limit}"
	DefaultDestination     = "output/channel_description.json"
)

// DefaultSummarizerSettings returns the summariser defaults.
func DefaultSummarizerSettings() SummarizerSettings {
	return SummarizerSettings{
		TokenBudget:     DefaultTokenBudget,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Mode:            SummaryModeIndependent,
		Reduction:       ReductionRechunk,
		Splitter:        SplitterTokens,
		MaxConcurrency:  DefaultMaxConcurrency,
		MaxPasses:       DefaultMaxPasses,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is OpenAI gpt-4 but stays unconfigured until an API key is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4",
		},
		Summary: DefaultSummarizerSettings(),
		Fetch: FetchSettings{
			APIURL:  DefaultAPIURL,
			Limit:   DefaultFetchLimit,
			Timeout: DefaultFetchTimeout,
		},
		Output: OutputSettings{
			SaveTo:      SaveTargetFile,
			Destination: DefaultDestination,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// AllSummaryModes returns all summary modes.
func AllSummaryModes() []SummaryMode {
	return []SummaryMode{SummaryModeIndependent, SummaryModeChained}
}

// AllSaveTargets returns all save targets.
func AllSaveTargets() []SaveTarget {
	return []SaveTarget{
		SaveTargetFile,
		SaveTargetSQLite,
		SaveTargetPostgres,
		SaveTargetMongoDB,
		SaveTargetGCS,
		SaveTargetMemory,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}
