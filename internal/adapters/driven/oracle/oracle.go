// Package oracle adapts a chat LLM service to the summarisation oracle port.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Ensure LLMOracle implements the interface.
var _ driven.Oracle = (*LLMOracle)(nil)

// LLMOracle summarises chunks by sending them to a chat model.
type LLMOracle struct {
	llm     driven.LLMService
	limiter *rate.Limiter
	timeout time.Duration
	log     *slog.Logger
}

// Option configures an LLMOracle.
type Option func(*LLMOracle)

// WithRateLimit caps calls at rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *LLMOracle) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds each call. Zero means no per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *LLMOracle) {
		o.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *LLMOracle) {
		o.log = logger.OrDiscard(l)
	}
}

// New creates an oracle over llm.
func New(llm driven.LLMService, opts ...Option) *LLMOracle {
	o := &LLMOracle{llm: llm, log: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Summarize sends the system prompt, the prior summary when present and
// the chunk text, and returns the trimmed reply.
func (o *LLMOracle) Summarize(ctx context.Context, req domain.SummaryRequest) (string, error) {
	if o.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCompletion, domain.ErrLLMUnavailable)
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", domain.ErrCompletion, err)
		}
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := o.llm.Chat(ctx, Messages(req), driven.ChatOptions{
		Model:     req.Model,
		MaxTokens: req.MaxOutputTokens,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCompletion) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrCompletion, err)
	}

	reply = strings.TrimSpace(reply)
	o.log.Debug("oracle.reply",
		"model", o.modelName(req),
		"chars", utf8.RuneCountInString(reply),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return reply, nil
}

func (o *LLMOracle) modelName(req domain.SummaryRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return o.llm.ModelName()
}

// Messages builds the chat messages for a request: the system prompt, the
// prior summary as an assistant turn when present, then the chunk text.
func Messages(req domain.SummaryRequest) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, 3)
	if req.SystemPrompt != "" {
		messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: req.SystemPrompt})
	}
	if req.PriorContext != "" {
		messages = append(messages, driven.ChatMessage{Role: driven.RoleAssistant, Content: req.PriorContext})
	}
	return append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: req.Text})
}
