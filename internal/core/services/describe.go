package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Ensure DescribeService implements the interface.
var _ driving.ChannelDescriber = (*DescribeService)(nil)

// DescribeService runs a full channel description: fetch the channel's
// videos, summarise them and save the result.
type DescribeService struct {
	fetcher    driven.SubtitleFetcher
	summarizer driving.CollectionSummarizer
	savers     driven.SaverFactory
	output     domain.OutputSettings
	limit      int
	log        *slog.Logger
	now        func() time.Time
}

// DescribeOption configures a DescribeService.
type DescribeOption func(*DescribeService)

// WithDescribeLogger sets the logger for run events.
func WithDescribeLogger(l *slog.Logger) DescribeOption {
	return func(s *DescribeService) {
		s.log = logger.OrDiscard(l)
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) DescribeOption {
	return func(s *DescribeService) {
		s.now = now
	}
}

// WithDefaultLimit sets the item limit used when a request has none.
func WithDefaultLimit(limit int) DescribeOption {
	return func(s *DescribeService) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// NewDescribeService creates a new describe service. output supplies the
// save target and destination when a request leaves them empty.
func NewDescribeService(
	fetcher driven.SubtitleFetcher,
	summarizer driving.CollectionSummarizer,
	savers driven.SaverFactory,
	output domain.OutputSettings,
	opts ...DescribeOption,
) *DescribeService {
	s := &DescribeService{
		fetcher:    fetcher,
		summarizer: summarizer,
		savers:     savers,
		output:     output,
		limit:      domain.DefaultFetchLimit,
		log:        logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Describe implements driving.ChannelDescriber. Nothing is saved unless
// every step before it succeeded.
func (s *DescribeService) Describe(ctx context.Context, req driving.DescribeRequest) (*driving.DescribeResult, error) {
	req, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	if s.fetcher == nil || s.summarizer == nil {
		return nil, fmt.Errorf("%w: describe service is missing a fetcher or summarizer", domain.ErrInvalidConfig)
	}

	start := s.now()
	s.log.Info("describe.start",
		"channel", req.ChannelID,
		"limit", req.Limit,
		"started_at", start.Format(time.DateTime))

	items, err := s.fetcher.FetchItems(ctx, req.ChannelID, req.Limit)
	if err != nil {
		s.log.Warn("describe.failed", "channel", req.ChannelID, "stage", "fetch", "err", err)
		return nil, err
	}
	s.log.Info("describe.fetched", "channel", req.ChannelID, "items", len(items))

	desc, err := s.summarizer.SummarizeCollection(ctx, items)
	if err != nil {
		s.log.Warn("describe.failed", "channel", req.ChannelID, "stage", "summarize", "err", err)
		return nil, err
	}

	result := &driving.DescribeResult{
		ChannelID:   req.ChannelID,
		Description: *desc,
		Items:       len(items),
	}

	if !req.DryRun {
		savedTo, err := s.save(ctx, req, desc.Text)
		if err != nil {
			s.log.Warn("describe.failed", "channel", req.ChannelID, "stage", "save", "err", err)
			return nil, err
		}
		result.SavedTo = savedTo
		s.log.Info("describe.saved", "channel", req.ChannelID, "saved_to", savedTo)
	}

	end := s.now()
	result.Duration = end.Sub(start)
	s.log.Info("describe.done",
		"channel", req.ChannelID,
		"items", result.Items,
		"passes", desc.Passes,
		"saved_to", result.SavedTo,
		"finished_at", end.Format(time.DateTime),
		"duration", result.Duration)
	return result, nil
}

func (s *DescribeService) resolve(req driving.DescribeRequest) (driving.DescribeRequest, error) {
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	if req.ChannelID == "" {
		return req, fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if req.Limit < 0 {
		return req, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	if req.Limit == 0 {
		req.Limit = s.limit
	}
	if req.DryRun {
		return req, nil
	}

	if req.SaveTo == "" {
		req.SaveTo = s.output.SaveTo
	}
	if !req.SaveTo.IsValid() {
		return req, fmt.Errorf("%w: %q", domain.ErrUnsupportedSaveTarget, req.SaveTo)
	}
	if req.Destination == "" {
		req.Destination = s.output.Destination
	}
	return req, nil
}

func (s *DescribeService) save(ctx context.Context, req driving.DescribeRequest, text string) (string, error) {
	if s.savers == nil {
		return "", fmt.Errorf("%w: no savers configured", domain.ErrInvalidConfig)
	}
	saver, err := s.savers.Saver(req.SaveTo)
	if err != nil {
		return "", err
	}
	if err := saver.Save(ctx, req.ChannelID, text, req.Destination); err != nil {
		return "", fmt.Errorf("save to %s: %w", saver.Name(), err)
	}
	return fmt.Sprintf("%s:%s", saver.Name(), req.Destination), nil
}
