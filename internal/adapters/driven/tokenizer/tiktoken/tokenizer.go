// Package tiktoken provides a driven.Tokenizer backed by OpenAI's BPE
// encodings through github.com/pkoukk/tiktoken-go.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// DefaultEncoding is used when the model has no known encoding.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps a tiktoken encoding. It is safe for concurrent use.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// New returns the tokenizer for model, falling back to cl100k_base for
// models tiktoken does not know (Claude, Gemini, local models).
func New(model string) (*Tokenizer, error) {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return &Tokenizer{encoding: enc, name: model}, nil
		}
	}
	return NewWithEncoding(DefaultEncoding)
}

// NewWithEncoding returns the tokenizer for a named encoding.
func NewWithEncoding(name string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: loading encoding %s: %w", domain.ErrTokenization, name, err)
	}
	return &Tokenizer{encoding: enc, name: name}, nil
}

// Encode returns the token ids of text. Special tokens are encoded as text.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	return t.encoding.Encode(text, nil, nil), nil
}

// Decode returns the text for tokens.
func (t *Tokenizer) Decode(tokens []int) (string, error) {
	return t.encoding.Decode(tokens), nil
}

// Name returns the model or encoding name the tokenizer was built for.
func (t *Tokenizer) Name() string {
	return t.name
}
