package chunker

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// WordChunker packs whitespace-separated words into chunks whose length in
// characters stays within the budget. Characters stand in for tokens, so the
// budget is only approximate. A single word longer than the budget becomes
// a chunk of its own.
type WordChunker struct {
	log *slog.Logger
}

// NewWordChunker creates a character-counting word chunker.
func NewWordChunker(opts ...Option) *WordChunker {
	o := newOptions(opts)
	return &WordChunker{log: o.log}
}

// Count returns the number of characters in text.
func (c *WordChunker) Count(text string) (int, error) {
	return utf8.RuneCountInString(text), nil
}

// Split packs the words of text greedily. Joining the chunks with a single
// space reproduces the word sequence of text.
func (c *WordChunker) Split(text string, budget int) ([]string, error) {
	if err := checkBudget(budget); err != nil {
		return nil, err
	}
	if text == "" {
		return []string{}, nil
	}
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}, nil
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if size > 0 && size+1+n > budget {
			flush()
		}
		if size > 0 {
			current.WriteByte(' ')
			size++
		}
		current.WriteString(word)
		size += n
	}
	flush()

	c.log.Debug("chunk.split",
		"encoding", "words",
		"chars", utf8.RuneCountInString(text),
		"budget", budget,
		"chunks", len(chunks))

	if chunks == nil {
		return []string{}, nil
	}
	return chunks, nil
}
