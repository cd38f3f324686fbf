package driven

import (
	"context"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

// Oracle summarises a single chunk of text.
// Implementations must be safe for concurrent use.
type Oracle interface {
	// Summarize returns the trimmed summary of req.Text.
	// Failures wrap domain.ErrCompletion.
	Summarize(ctx context.Context, req domain.SummaryRequest) (string, error)
}
