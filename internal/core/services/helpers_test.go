package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/recap-cli/internal/chunker"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

const (
	testSubtitlePrompt = "summarise subtitles"
	testChannelPrompt  = "describe channel"
)

var testPrompts = SummaryPrompts{Subtitle: testSubtitlePrompt, Channel: testChannelPrompt}

var wordPiece = regexp.MustCompile(`\s*\S+|\s+`)

// wordTokenizer treats each word with its leading whitespace as one token.
type wordTokenizer struct {
	mu     sync.Mutex
	vocab  map[string]int
	pieces []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (t *wordTokenizer) Encode(text string) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []int
	for _, piece := range wordPiece.FindAllString(text, -1) {
		id, ok := t.vocab[piece]
		if !ok {
			id = len(t.pieces)
			t.vocab[piece] = id
			t.pieces = append(t.pieces, piece)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *wordTokenizer) Decode(tokens []int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b strings.Builder
	for _, id := range tokens {
		b.WriteString(t.pieces[id])
	}
	return b.String(), nil
}

func (t *wordTokenizer) Name() string {
	return "words-test"
}

func newTestSplitter() *chunker.TokenChunker {
	return chunker.NewTokenChunker(newWordTokenizer())
}

// words returns "w0 w1 ... w{n-1}".
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

// stubOracle records every request and answers with fn.
type stubOracle struct {
	mu       sync.Mutex
	calls    []domain.SummaryRequest
	fn       func(ctx context.Context, req domain.SummaryRequest) (string, error)
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newStubOracle(fn func(ctx context.Context, req domain.SummaryRequest) (string, error)) *stubOracle {
	return &stubOracle{fn: fn}
}

// echoOracle returns its input unchanged.
func echoOracle() *stubOracle {
	return newStubOracle(func(_ context.Context, req domain.SummaryRequest) (string, error) {
		return req.Text, nil
	})
}

func (o *stubOracle) Summarize(ctx context.Context, req domain.SummaryRequest) (string, error) {
	n := o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	for {
		seen := o.maxSeen.Load()
		if n <= seen || o.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	o.mu.Lock()
	o.calls = append(o.calls, req)
	o.mu.Unlock()

	return o.fn(ctx, req)
}

func (o *stubOracle) requests() []domain.SummaryRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.SummaryRequest, len(o.calls))
	copy(out, o.calls)
	return out
}

func (o *stubOracle) requestsFor(prompt string) []domain.SummaryRequest {
	var out []domain.SummaryRequest
	for _, r := range o.requests() {
		if r.SystemPrompt == prompt {
			out = append(out, r)
		}
	}
	return out
}

// byPrompt routes subtitle and channel requests to different functions.
func byPrompt(
	subtitle func(domain.SummaryRequest) (string, error),
	channel func(domain.SummaryRequest) (string, error),
) func(context.Context, domain.SummaryRequest) (string, error) {
	return func(_ context.Context, req domain.SummaryRequest) (string, error) {
		if req.SystemPrompt == testChannelPrompt {
			return channel(req)
		}
		return subtitle(req)
	}
}

func echo(req domain.SummaryRequest) (string, error) {
	return req.Text, nil
}

var errProvider = errors.New("provider unavailable")

func testSettings(mode domain.SummaryMode, budget int) domain.SummarizerSettings {
	cfg := domain.DefaultSummarizerSettings()
	cfg.Mode = mode
	cfg.TokenBudget = budget
	return cfg
}

// mapPrompts is an in-memory driven.PromptStore.
type mapPrompts map[string]string

func (m mapPrompts) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: prompt %s", domain.ErrNotFound, name)
	}
	return p, nil
}

func (m mapPrompts) Reload() {}
