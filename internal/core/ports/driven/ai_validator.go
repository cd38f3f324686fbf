package driven

import "github.com/custodia-labs/recap-cli/internal/core/domain"

// AIConfigValidator checks that saved LLM settings reach a working provider.
type AIConfigValidator interface {
	// ValidateLLM returns nil when the provider responds or when no
	// provider is configured.
	ValidateLLM(config *domain.LLMSettings) error
}
