package driving

import (
	"context"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

// CollectionSummarizer reduces a collection of source items to a single
// channel description.
type CollectionSummarizer interface {
	// SummarizeCollection returns the description of items, or the first
	// error encountered. No partial description is returned on failure.
	SummarizeCollection(ctx context.Context, items []domain.SourceItem) (*domain.Description, error)
}
