package driven

import (
	"context"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

// SubtitleFetcher retrieves the subtitled videos of a channel.
type SubtitleFetcher interface {
	// FetchItems returns at most limit items for the channel.
	// Non-success responses fail with *domain.FetchError.
	FetchItems(ctx context.Context, channelID string, limit int) ([]domain.SourceItem, error)
}
