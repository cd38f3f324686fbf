package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Ensure Summarizer implements the interface.
var _ driving.CollectionSummarizer = (*Summarizer)(nil)

// SummaryPrompts holds the system prompts for both reduction levels.
type SummaryPrompts struct {
	// Subtitle is used for every chunk of an item's subtitles.
	Subtitle string

	// Channel is used for every chunk of the joined annotations.
	Channel string
}

// LoadSummaryPrompts reads both prompts from a prompt store.
func LoadSummaryPrompts(store driven.PromptStore) (SummaryPrompts, error) {
	subtitle, err := store.Load(driven.PromptSubtitleSummary)
	if err != nil {
		return SummaryPrompts{}, fmt.Errorf("loading subtitle prompt: %w", err)
	}
	channel, err := store.Load(driven.PromptChannelSummary)
	if err != nil {
		return SummaryPrompts{}, fmt.Errorf("loading channel prompt: %w", err)
	}
	return SummaryPrompts{Subtitle: subtitle, Channel: channel}, nil
}

// Summarizer reduces a collection of subtitled items to one description.
//
// Each item's subtitles are split into chunks within the token budget and
// summarised; the chunk summaries are joined into the item's annotation.
// The annotations are then reduced the same way with the channel prompt,
// repeating until the result fits the budget.
type Summarizer struct {
	splitter driven.Splitter
	oracle   driven.Oracle
	prompts  SummaryPrompts
	cfg      domain.SummarizerSettings
	model    string
	log      *slog.Logger
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithSummarizerLogger sets the logger for progress events.
func WithSummarizerLogger(l *slog.Logger) SummarizerOption {
	return func(s *Summarizer) {
		s.log = logger.OrDiscard(l)
	}
}

// WithModel sets the model requested from the oracle.
// Empty leaves the choice to the oracle.
func WithModel(model string) SummarizerOption {
	return func(s *Summarizer) {
		s.model = model
	}
}

// NewSummarizer creates a summarizer. Zero-valued mode, reduction and pass
// limit fall back to their defaults.
func NewSummarizer(
	splitter driven.Splitter,
	oracle driven.Oracle,
	prompts SummaryPrompts,
	cfg domain.SummarizerSettings,
	opts ...SummarizerOption,
) (*Summarizer, error) {
	if splitter == nil || oracle == nil {
		return nil, fmt.Errorf("%w: summarizer needs a splitter and an oracle", domain.ErrInvalidInput)
	}
	if cfg.TokenBudget <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBudget, cfg.TokenBudget)
	}

	defaults := domain.DefaultSummarizerSettings()
	if cfg.Mode == "" {
		cfg.Mode = defaults.Mode
	}
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("%w: summary mode %q", domain.ErrUnsupportedType, cfg.Mode)
	}
	if cfg.Reduction == "" {
		cfg.Reduction = defaults.Reduction
	}
	if !cfg.Reduction.IsValid() {
		return nil, fmt.Errorf("%w: reduction strategy %q", domain.ErrUnsupportedType, cfg.Reduction)
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = defaults.MaxPasses
	}

	s := &Summarizer{
		splitter: splitter,
		oracle:   oracle,
		prompts:  prompts,
		cfg:      cfg,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns the effective summariser settings.
func (s *Summarizer) Settings() domain.SummarizerSettings {
	return s.cfg
}

// SummarizeCollection annotates every item, then reduces the annotations to
// a description. The first failure aborts the whole run.
func (s *Summarizer) SummarizeCollection(ctx context.Context, items []domain.SourceItem) (*domain.Description, error) {
	r := s.newRun()

	annotations, err := r.annotateItems(ctx, items)
	if err != nil {
		return nil, err
	}

	desc, err := r.reduceCollection(ctx, annotations)
	if err != nil {
		return nil, err
	}

	s.log.Info("collection.done",
		"items", desc.Items,
		"passes", desc.Passes,
		"chars", utf8.RuneCountInString(desc.Text))
	return desc, nil
}

// Annotate runs only the item-level reduction and returns one annotation
// per item, in item order.
func (s *Summarizer) Annotate(ctx context.Context, items []domain.SourceItem) ([]domain.Annotation, error) {
	return s.newRun().annotateItems(ctx, items)
}

// run holds the state of one SummarizeCollection call.
type run struct {
	*Summarizer
	sem *semaphore.Weighted
}

func (s *Summarizer) newRun() *run {
	r := &run{Summarizer: s}
	if s.cfg.Mode == domain.SummaryModeIndependent && s.cfg.MaxConcurrency > 0 {
		r.sem = semaphore.NewWeighted(int64(s.cfg.MaxConcurrency))
	}
	return r
}

// reduction identifies one split/summarize/join step for logging and errors.
type reduction struct {
	chunkType domain.ChunkType
	item      int
	pass      int
	prompt    string
}

func (red reduction) wrap(chunk int, err error) error {
	var ce *domain.CompletionError
	if errors.As(err, &ce) {
		return err
	}
	return &domain.CompletionError{
		ChunkType:  red.chunkType,
		ItemIndex:  red.item,
		ChunkIndex: chunk,
		Pass:       red.pass,
		Err:        err,
	}
}

func (red reduction) attrs(chunk, total int) []any {
	if red.chunkType == domain.ChunkTypeChannel {
		return []any{"type", red.chunkType.String(), "pass", red.pass + 1, "chunk", chunk + 1, "chunks", total}
	}
	return []any{"type", red.chunkType.String(), "item", red.item + 1, "chunk", chunk + 1, "chunks", total}
}

func (r *run) annotateItems(ctx context.Context, items []domain.SourceItem) ([]domain.Annotation, error) {
	annotations := make([]domain.Annotation, len(items))

	if r.cfg.Mode == domain.SummaryModeChained {
		for i := range items {
			a, err := r.annotateItem(ctx, i, items[i])
			if err != nil {
				return nil, err
			}
			annotations[i] = a
		}
		return annotations, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			a, err := r.annotateItem(gctx, i, items[i])
			if err != nil {
				return err
			}
			annotations[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return annotations, nil
}

func (r *run) annotateItem(ctx context.Context, index int, item domain.SourceItem) (domain.Annotation, error) {
	chunks, err := r.splitter.Split(item.RawText, r.cfg.TokenBudget)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("splitting item %d: %w", index+1, err)
	}
	r.log.Info("item.split", "item", index+1, "title", item.Title, "chunks", len(chunks))

	red := reduction{
		chunkType: domain.ChunkTypeSubtitles,
		item:      index,
		prompt:    r.prompts.Subtitle,
	}
	text, err := r.reduce(ctx, red, chunks)
	if err != nil {
		return domain.Annotation{}, err
	}

	r.log.Info("item.annotated", "item", index+1, "chars", utf8.RuneCountInString(text))
	return domain.Annotation{
		ItemIndex: index,
		Title:     item.Title,
		URL:       item.URL,
		Text:      text,
	}, nil
}

// reduceCollection summarises the annotations with the channel prompt and
// repeats on the result until it fits the budget.
func (r *run) reduceCollection(ctx context.Context, annotations []domain.Annotation) (*domain.Description, error) {
	texts := make([]string, 0, len(annotations))
	for _, a := range annotations {
		if a.Text != "" {
			texts = append(texts, a.Text)
		}
	}

	desc := &domain.Description{Items: len(texts)}
	if len(texts) == 0 {
		return desc, nil
	}

	chunks, err := r.firstPassChunks(texts)
	if err != nil {
		return nil, err
	}

	for pass := 0; ; pass++ {
		if pass >= r.cfg.MaxPasses {
			return nil, fmt.Errorf("%w: still over %d tokens after %d passes",
				domain.ErrReductionDiverged, r.cfg.TokenBudget, pass)
		}

		red := reduction{
			chunkType: domain.ChunkTypeChannel,
			item:      -1,
			pass:      pass,
			prompt:    r.prompts.Channel,
		}
		result, err := r.reduce(ctx, red, chunks)
		if err != nil {
			return nil, err
		}
		desc.Passes = pass + 1

		size, err := r.splitter.Count(result)
		if err != nil {
			return nil, fmt.Errorf("measuring channel pass %d: %w", pass+1, err)
		}
		r.log.Info("channel.pass", "pass", pass+1, "chunks", len(chunks), "tokens", size)

		if size <= r.cfg.TokenBudget {
			desc.Text = result
			return desc, nil
		}

		chunks, err = r.splitter.Split(result, r.cfg.TokenBudget)
		if err != nil {
			return nil, fmt.Errorf("splitting channel pass %d: %w", pass+1, err)
		}
	}
}

// firstPassChunks prepares the input of the first channel pass. With the
// rechunk strategy the annotations are joined and split as one corpus; with
// the atomic strategy each annotation is one input, and only annotations
// over the budget are split further.
func (r *run) firstPassChunks(texts []string) ([]string, error) {
	if r.cfg.Reduction == domain.ReductionAtomic {
		var chunks []string
		for i, text := range texts {
			parts, err := r.splitter.Split(text, r.cfg.TokenBudget)
			if err != nil {
				return nil, fmt.Errorf("splitting annotation %d: %w", i+1, err)
			}
			chunks = append(chunks, parts...)
		}
		return chunks, nil
	}

	chunks, err := r.splitter.Split(strings.Join(texts, " "), r.cfg.TokenBudget)
	if err != nil {
		return nil, fmt.Errorf("splitting annotations: %w", err)
	}
	return chunks, nil
}

// reduce summarises chunks and joins the summaries with single spaces.
// Empty summaries are dropped.
func (r *run) reduce(ctx context.Context, red reduction, chunks []string) (string, error) {
	var (
		summaries []string
		err       error
	)
	if r.cfg.Mode == domain.SummaryModeChained {
		summaries, err = r.foldChain(ctx, red, chunks)
	} else {
		summaries, err = r.fanOut(ctx, red, chunks)
	}
	if err != nil {
		return "", err
	}
	kept := summaries[:0]
	for _, summary := range summaries {
		if summary != "" {
			kept = append(kept, summary)
		}
	}
	return strings.Join(kept, " "), nil
}

// foldChain summarises chunks strictly in order. Each call receives the
// previous summary as context; the first receives none.
func (r *run) foldChain(ctx context.Context, red reduction, chunks []string) ([]string, error) {
	summaries := make([]string, 0, len(chunks))
	prior := ""
	for i, chunk := range chunks {
		summary, err := r.summarizeChunk(ctx, red, i, len(chunks), chunk, prior)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
		prior = summary
	}
	return summaries, nil
}

// fanOut summarises all chunks concurrently. Results are stored by chunk
// index, so output order never depends on completion order. The first
// failure cancels the remaining calls.
func (r *run) fanOut(ctx context.Context, red reduction, chunks []string) ([]string, error) {
	summaries := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			summary, err := r.summarizeChunk(gctx, red, i, len(chunks), chunk, "")
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *run) summarizeChunk(ctx context.Context, red reduction, index, total int, chunk, prior string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", red.wrap(index, err)
	}
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return "", red.wrap(index, err)
		}
		defer r.sem.Release(1)
	}

	attrs := append(red.attrs(index, total), "model", r.model, "chars", utf8.RuneCountInString(chunk))
	r.log.Info("chunk.summarize", attrs...)

	summary, err := r.oracle.Summarize(ctx, domain.SummaryRequest{
		Text:            chunk,
		SystemPrompt:    red.prompt,
		PriorContext:    prior,
		MaxOutputTokens: r.cfg.MaxOutputTokens,
		Model:           r.model,
	})
	if err != nil {
		r.log.Warn("chunk.failed", append(red.attrs(index, total), "err", err)...)
		return "", red.wrap(index, err)
	}
	return strings.TrimSpace(summary), nil
}
