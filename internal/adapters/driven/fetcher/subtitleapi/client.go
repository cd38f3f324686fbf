// Package subtitleapi fetches subtitled channel videos from the subtitle API.
package subtitleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SubtitleFetcher = (*Client)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512

	channelPlaceholder = "{channel_id}"
	limitPlaceholder   = "{limit}"
)

// Client calls the subtitle API.
type Client struct {
	urlTemplate string
	http        *http.Client
	limiter     *rate.Limiter
	log         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit spaces requests at rps per second. A non-positive rps
// disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger.OrDiscard(l)
	}
}

// NewClient creates a client for urlTemplate, which may contain the
// {channel_id} and {limit} placeholders. An empty template uses
// domain.DefaultAPIURL.
func NewClient(urlTemplate string, opts ...Option) *Client {
	if urlTemplate == "" {
		urlTemplate = domain.DefaultAPIURL
	}
	c := &Client{
		urlTemplate: urlTemplate,
		http:        &http.Client{Timeout: DefaultTimeout},
		log:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestURL expands the URL template for a channel and limit.
func (c *Client) RequestURL(channelID string, limit int) string {
	r := strings.NewReplacer(
		channelPlaceholder, url.PathEscape(channelID),
		limitPlaceholder, url.QueryEscape(strconv.Itoa(limit)),
	)
	return r.Replace(c.urlTemplate)
}

// FetchItems returns the channel's subtitled videos.
func (c *Client) FetchItems(ctx context.Context, channelID string, limit int) ([]domain.SourceItem, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	endpoint := c.RequestURL(channelID, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.FetchError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var items []domain.SourceItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug("fetch.items",
		"channel_id", channelID,
		"items", len(items),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return items, nil
}
