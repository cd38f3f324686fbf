package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

// DescribeRequest describes one channel description run.
type DescribeRequest struct {
	// ChannelID identifies the channel at the subtitle API.
	ChannelID string

	// Limit is the maximum number of videos to fetch.
	Limit int

	// SaveTo selects the saver. Empty uses the configured default.
	SaveTo domain.SaveTarget

	// Destination is passed to the saver. Empty uses the configured default.
	Destination string

	// DryRun skips persistence.
	DryRun bool
}

// DescribeResult is the outcome of a successful run.
type DescribeResult struct {
	ChannelID   string
	Description domain.Description
	Items       int
	SavedTo     string
	Duration    time.Duration
}

// ChannelDescriber fetches a channel's videos, summarises them and saves
// the result.
type ChannelDescriber interface {
	Describe(ctx context.Context, req DescribeRequest) (*DescribeResult, error)
}
