// Package app assembles the summarisation pipeline from application settings.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/recap-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/fetcher/subtitleapi"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/oracle"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/recap-cli/internal/chunker"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/core/services"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Pipeline holds the services for one configuration.
type Pipeline struct {
	Summarizer *services.Summarizer
	Describer  *services.DescribeService
	Savers     *storage.Registry

	llm driven.LLMService
}

// Close releases the LLM client and any saver connections.
func (p *Pipeline) Close() error {
	var errs []error
	if p.llm != nil {
		errs = append(errs, p.llm.Close())
	}
	if p.Savers != nil {
		errs = append(errs, p.Savers.Close())
	}
	return errors.Join(errs...)
}

type options struct {
	log      *slog.Logger
	prompts  driven.PromptStore
	llm      driven.LLMService
	fetcher  driven.SubtitleFetcher
	splitter driven.Splitter
	savers   *storage.Registry
}

// Option customises how a Pipeline is built.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPromptStore loads prompts from store instead of the built-in defaults.
func WithPromptStore(store driven.PromptStore) Option {
	return func(o *options) { o.prompts = store }
}

// WithLLM uses svc instead of creating one from the LLM settings.
func WithLLM(svc driven.LLMService) Option {
	return func(o *options) { o.llm = svc }
}

// WithFetcher uses f instead of the subtitle API client.
func WithFetcher(f driven.SubtitleFetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithSplitter uses s instead of the splitter chosen by summary.splitter.
func WithSplitter(s driven.Splitter) Option {
	return func(o *options) { o.splitter = s }
}

// WithSavers uses an existing saver registry.
func WithSavers(r *storage.Registry) Option {
	return func(o *options) { o.savers = r }
}

// New builds a pipeline for settings.
func New(settings domain.AppSettings, opts ...Option) (*Pipeline, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDiscard(o.log)

	llm := o.llm
	if llm == nil {
		svc, err := ai.CreateLLMService(&settings.LLM)
		if err != nil {
			return nil, err
		}
		llm = svc
	}

	p, err := build(settings, o, llm, log)
	if err != nil {
		if o.llm == nil {
			llm.Close()
		}
		return nil, err
	}
	if o.llm == nil {
		p.llm = llm
	}
	return p, nil
}

func build(settings domain.AppSettings, o options, llm driven.LLMService, log *slog.Logger) (*Pipeline, error) {
	splitter := o.splitter
	if splitter == nil {
		splitter = newSplitter(settings, log)
	}

	prompts, err := loadPrompts(o.prompts)
	if err != nil {
		return nil, err
	}

	orc := oracle.New(llm,
		oracle.WithRateLimit(settings.Summary.RequestsPerSecond, 1),
		oracle.WithLogger(log),
	)

	summarizer, err := services.NewSummarizer(splitter, orc, prompts, settings.Summary,
		services.WithSummarizerLogger(log),
		services.WithModel(settings.LLM.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create summarizer: %w", err)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = subtitleapi.NewClient(settings.Fetch.APIURL,
			subtitleapi.WithTimeout(settings.Fetch.Timeout),
			subtitleapi.WithLogger(log),
		)
	}

	savers := o.savers
	if savers == nil {
		savers = storage.NewRegistry()
	}

	describer := services.NewDescribeService(fetcher, summarizer, savers, settings.Output,
		services.WithDescribeLogger(log),
		services.WithDefaultLimit(settings.Fetch.Limit),
	)

	return &Pipeline{
		Summarizer: summarizer,
		Describer:  describer,
		Savers:     savers,
	}, nil
}

// loadTokenizer loads the tokenizer for a model. Loading may download
// encoding data.
var loadTokenizer = func(model string) (driven.Tokenizer, error) {
	return tiktoken.New(model)
}

// newSplitter returns the chunker for summary.splitter. A tokenizer that
// fails to load falls back to word chunking, measured in characters.
func newSplitter(settings domain.AppSettings, log *slog.Logger) driven.Splitter {
	if settings.Summary.Splitter == domain.SplitterWords {
		return chunker.NewWordChunker(chunker.WithLogger(log))
	}
	tok, err := loadTokenizer(settings.LLM.Model)
	if err != nil {
		log.Warn("splitter.fallback",
			"model", settings.LLM.Model,
			"splitter", domain.SplitterWords.String(),
			"err", err,
		)
		return chunker.NewWordChunker(chunker.WithLogger(log))
	}
	return chunker.NewTokenChunker(tok, chunker.WithLogger(log))
}

// DefaultPrompts returns the built-in summarisation prompts.
func DefaultPrompts() services.SummaryPrompts {
	subtitle, _ := configfile.DefaultPrompt(driven.PromptSubtitleSummary)
	channel, _ := configfile.DefaultPrompt(driven.PromptChannelSummary)
	return services.SummaryPrompts{Subtitle: subtitle, Channel: channel}
}

func loadPrompts(store driven.PromptStore) (services.SummaryPrompts, error) {
	if store == nil {
		return DefaultPrompts(), nil
	}
	return services.LoadSummaryPrompts(store)
}
