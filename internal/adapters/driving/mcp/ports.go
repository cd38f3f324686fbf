package mcp

import (
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
)

// Ports aggregates the services the MCP server exposes.
type Ports struct {
	// Describer fetches, summarises and saves channel descriptions.
	Describer driving.ChannelDescriber

	// Summarizer condenses caller-supplied items.
	Summarizer driving.CollectionSummarizer

	// Prompts serves the prompt resources. Optional.
	Prompts driven.PromptStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Describer == nil {
		return ErrMissingDescriber
	}
	if p.Summarizer == nil {
		return ErrMissingSummarizer
	}
	return nil
}
