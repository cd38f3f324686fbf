// Package chunker splits text into chunks that fit a token budget.
//
// TokenChunker slices the token stream of a real tokenizer and is exact:
// concatenating its chunks reproduces the input byte for byte. WordChunker
// is an approximation for when no tokenizer is available. It measures size
// in characters and splits on whitespace, so it preserves the word sequence
// but not the original whitespace, and its budget is not a token count.
package chunker

import (
	"fmt"
	"log/slog"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Ensure both chunkers implement the Splitter port.
var (
	_ driven.Splitter = (*TokenChunker)(nil)
	_ driven.Splitter = (*WordChunker)(nil)
)

type options struct {
	log *slog.Logger
}

// Option configures a chunker.
type Option func(*options)

// WithLogger sets the logger used for split events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = logger.OrDiscard(l)
	}
}

func newOptions(opts []Option) options {
	o := options{log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkBudget(budget int) error {
	if budget <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidBudget, budget)
	}
	return nil
}

// TokenChunker splits text on token boundaries of a driven.Tokenizer.
// It is safe for concurrent use if the tokenizer is.
type TokenChunker struct {
	tokenizer driven.Tokenizer
	log       *slog.Logger
}

// NewTokenChunker creates a chunker over the given tokenizer.
func NewTokenChunker(tokenizer driven.Tokenizer, opts ...Option) *TokenChunker {
	o := newOptions(opts)
	return &TokenChunker{tokenizer: tokenizer, log: o.log}
}

// Count returns the number of tokens in text.
func (c *TokenChunker) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	tokens, err := c.tokenizer.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("%w: encoding text: %w", domain.ErrTokenization, err)
	}
	return len(tokens), nil
}

// Split returns ceil(tokens/budget) chunks of at most budget tokens each.
// Text that already fits is returned unchanged as a single chunk without
// being decoded again.
func (c *TokenChunker) Split(text string, budget int) ([]string, error) {
	if err := checkBudget(budget); err != nil {
		return nil, err
	}
	if text == "" {
		return []string{}, nil
	}

	tokens, err := c.tokenizer.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding text: %w", domain.ErrTokenization, err)
	}
	if len(tokens) <= budget {
		return []string{text}, nil
	}

	pieces := (len(tokens) + budget - 1) / budget
	chunks := make([]string, 0, pieces)
	for start := 0; start < len(tokens); start += budget {
		end := min(start+budget, len(tokens))
		chunk, err := c.tokenizer.Decode(tokens[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: decoding tokens %d-%d: %w", domain.ErrTokenization, start, end, err)
		}
		chunks = append(chunks, chunk)
	}

	c.log.Debug("chunk.split",
		"encoding", c.tokenizer.Name(),
		"tokens", len(tokens),
		"budget", budget,
		"chunks", len(chunks))

	return chunks, nil
}
