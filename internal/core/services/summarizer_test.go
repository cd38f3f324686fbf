package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

var bothModes = []domain.SummaryMode{domain.SummaryModeIndependent, domain.SummaryModeChained}

func TestNewSummarizer_Validation(t *testing.T) {
	splitter := newTestSplitter()
	oracle := echoOracle()

	tests := []struct {
		name     string
		splitter driven.Splitter
		oracle   driven.Oracle
		mutate   func(*domain.SummarizerSettings)
		err      error
	}{
		{"zero budget", splitter, oracle, func(c *domain.SummarizerSettings) { c.TokenBudget = 0 }, domain.ErrInvalidBudget},
		{"negative budget", splitter, oracle, func(c *domain.SummarizerSettings) { c.TokenBudget = -5 }, domain.ErrInvalidBudget},
		{"unknown mode", splitter, oracle, func(c *domain.SummarizerSettings) { c.Mode = "parallel" }, domain.ErrUnsupportedType},
		{"unknown reduction", splitter, oracle, func(c *domain.SummarizerSettings) { c.Reduction = "fold" }, domain.ErrUnsupportedType},
		{"nil oracle", splitter, nil, func(*domain.SummarizerSettings) {}, domain.ErrInvalidInput},
		{"nil splitter", nil, oracle, func(*domain.SummarizerSettings) {}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSettings(domain.SummaryModeIndependent, 10)
			tt.mutate(&cfg)

			s, err := NewSummarizer(tt.splitter, tt.oracle, testPrompts, cfg)

			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewSummarizer_Defaults(t *testing.T) {
	s, err := NewSummarizer(newTestSplitter(), echoOracle(), testPrompts,
		domain.SummarizerSettings{TokenBudget: 10})

	require.NoError(t, err)
	assert.Equal(t, domain.SummaryModeIndependent, s.Settings().Mode)
	assert.Equal(t, domain.ReductionRechunk, s.Settings().Reduction)
	assert.Equal(t, domain.DefaultMaxPasses, s.Settings().MaxPasses)
}

// A 25-token item with a budget of 10 is split 10/10/5 and each chunk's
// summary lands in order.
func TestSummarizer_ThreeChunkItem(t *testing.T) {
	for _, mode := range bothModes {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			splitter := newTestSplitter()
			text := words(25)

			chunks, err := splitter.Split(text, 10)
			require.NoError(t, err)
			require.Len(t, chunks, 3)
			index := make(map[string]int, len(chunks))
			for i, c := range chunks {
				index[c] = i
			}

			oracle := newStubOracle(byPrompt(
				func(req domain.SummaryRequest) (string, error) {
					return fmt.Sprintf("S%d", index[req.Text]), nil
				},
				echo,
			))
			s, err := NewSummarizer(splitter, oracle, testPrompts, testSettings(mode, 10))
			require.NoError(t, err)

			items := []domain.SourceItem{{URL: "https://v/1", Title: "one", RawText: text}}

			annotations, err := s.Annotate(ctx, items)
			require.NoError(t, err)
			require.Len(t, annotations, 1)
			assert.Equal(t, "S0 S1 S2", annotations[0].Text)
			assert.Equal(t, "one", annotations[0].Title)
			assert.Equal(t, "https://v/1", annotations[0].URL)

			desc, err := s.SummarizeCollection(ctx, items)
			require.NoError(t, err)
			assert.Equal(t, "S0 S1 S2", desc.Text)
			assert.Equal(t, 1, desc.Items)
			assert.Equal(t, 1, desc.Passes)
		})
	}
}

func TestSummarizer_ChannelJoinsAnnotationsInOrder(t *testing.T) {
	summaries := map[string]string{"first video": "A", "second video": "B"}

	for _, mode := range bothModes {
		for _, strategy := range []domain.ReductionStrategy{domain.ReductionRechunk, domain.ReductionAtomic} {
			t.Run(string(mode)+"/"+string(strategy), func(t *testing.T) {
				oracle := newStubOracle(byPrompt(
					func(req domain.SummaryRequest) (string, error) {
						return summaries[req.Text], nil
					},
					echo,
				))
				cfg := testSettings(mode, 10)
				cfg.Reduction = strategy
				s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg)
				require.NoError(t, err)

				desc, err := s.SummarizeCollection(context.Background(), []domain.SourceItem{
					{Title: "1", RawText: "first video"},
					{Title: "2", RawText: "second video"},
				})

				require.NoError(t, err)
				assert.Equal(t, "A B", desc.Text)
				assert.Equal(t, 2, desc.Items)
			})
		}
	}
}

func TestSummarizer_ChannelInputsPerStrategy(t *testing.T) {
	run := func(t *testing.T, strategy domain.ReductionStrategy) []string {
		t.Helper()
		oracle := newStubOracle(byPrompt(
			func(req domain.SummaryRequest) (string, error) {
				return strings.ToUpper(req.Text), nil
			},
			func(domain.SummaryRequest) (string, error) { return "ok", nil },
		))
		cfg := testSettings(domain.SummaryModeChained, 10)
		cfg.Reduction = strategy
		s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg)
		require.NoError(t, err)

		_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{
			{RawText: "alpha"}, {RawText: "beta"}, {RawText: "gamma"},
		})
		require.NoError(t, err)

		var inputs []string
		for _, r := range oracle.requestsFor(testChannelPrompt) {
			inputs = append(inputs, r.Text)
		}
		return inputs
	}

	t.Run("rechunk joins annotations into one corpus", func(t *testing.T) {
		assert.Equal(t, []string{"ALPHA BETA GAMMA"}, run(t, domain.ReductionRechunk))
	})

	t.Run("atomic sends each annotation on its own", func(t *testing.T) {
		assert.Equal(t, []string{"ALPHA", "BETA", "GAMMA"}, run(t, domain.ReductionAtomic))
	})
}

func TestSummarizer_AtomicSplitsOversizedAnnotations(t *testing.T) {
	oracle := newStubOracle(byPrompt(echo, func(domain.SummaryRequest) (string, error) { return "ok", nil }))
	cfg := testSettings(domain.SummaryModeIndependent, 4)
	cfg.Reduction = domain.ReductionAtomic
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg)
	require.NoError(t, err)

	// Independent item chunks echo back, so the annotation has 6 tokens.
	_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: words(6)}})
	require.NoError(t, err)

	channel := oracle.requestsFor(testChannelPrompt)
	require.Len(t, channel, 2)
	for _, r := range channel {
		n, err := newTestSplitter().Count(r.Text)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 4)
	}
}

func TestSummarizer_OrderIndependentOfCompletion(t *testing.T) {
	const n = 8
	oracle := newStubOracle(byPrompt(
		func(req domain.SummaryRequest) (string, error) {
			var i int
			_, err := fmt.Sscanf(strings.TrimSpace(req.Text), "w%d", &i)
			if err != nil {
				return "", err
			}
			// Later chunks finish first.
			time.Sleep(time.Duration(n-i) * 3 * time.Millisecond)
			return strings.TrimSpace(req.Text), nil
		},
		echo,
	))
	cfg := testSettings(domain.SummaryModeIndependent, 1)
	cfg.MaxConcurrency = 0
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg)
	require.NoError(t, err)

	annotations, err := s.Annotate(context.Background(), []domain.SourceItem{{RawText: words(n)}})

	require.NoError(t, err)
	assert.Equal(t, words(n), annotations[0].Text)
	assert.Greater(t, oracle.maxSeen.Load(), int32(1), "chunks should run concurrently")
}

func TestSummarizer_ItemsKeepOrder(t *testing.T) {
	oracle := newStubOracle(byPrompt(
		func(req domain.SummaryRequest) (string, error) {
			if req.Text == "slow" {
				time.Sleep(20 * time.Millisecond)
			}
			return req.Text, nil
		},
		echo,
	))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 10))
	require.NoError(t, err)

	annotations, err := s.Annotate(context.Background(), []domain.SourceItem{
		{RawText: "slow"}, {RawText: "fast"}, {RawText: "faster"},
	})

	require.NoError(t, err)
	require.Len(t, annotations, 3)
	for i, want := range []string{"slow", "fast", "faster"} {
		assert.Equal(t, i, annotations[i].ItemIndex)
		assert.Equal(t, want, annotations[i].Text)
	}
}

func TestSummarizer_FailFast(t *testing.T) {
	for _, mode := range bothModes {
		t.Run(string(mode), func(t *testing.T) {
			oracle := newStubOracle(byPrompt(
				func(req domain.SummaryRequest) (string, error) {
					if strings.TrimSpace(req.Text) == "w2" {
						return "", errProvider
					}
					return "ok", nil
				},
				echo,
			))
			s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(mode, 1))
			require.NoError(t, err)

			desc, err := s.SummarizeCollection(context.Background(), []domain.SourceItem{
				{RawText: words(5)},
			})

			require.Error(t, err)
			assert.Nil(t, desc)
			assert.ErrorIs(t, err, domain.ErrCompletion)
			assert.ErrorIs(t, err, errProvider)

			var ce *domain.CompletionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, domain.ChunkTypeSubtitles, ce.ChunkType)
			assert.Equal(t, 0, ce.ItemIndex)
			assert.Equal(t, 2, ce.ChunkIndex)
			assert.Contains(t, err.Error(), "SUBTITLES item 1 chunk 3")

			assert.Empty(t, oracle.requestsFor(testChannelPrompt), "no channel reduction after a failed item")
			if mode == domain.SummaryModeChained {
				assert.Len(t, oracle.requests(), 3, "chunks after the failure are discarded")
			}
		})
	}
}

func TestSummarizer_FailureInLaterItem(t *testing.T) {
	oracle := newStubOracle(byPrompt(
		func(req domain.SummaryRequest) (string, error) {
			if req.Text == "broken" {
				return "", errProvider
			}
			return req.Text, nil
		},
		echo,
	))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeChained, 10))
	require.NoError(t, err)

	_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{
		{RawText: "fine"}, {RawText: "broken"}, {RawText: "never"},
	})

	var ce *domain.CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.ItemIndex)
	assert.Equal(t, 0, ce.ChunkIndex)
	for _, r := range oracle.requests() {
		assert.NotEqual(t, "never", r.Text, "chained mode processes items one after another")
	}
}

func TestSummarizer_ChannelFailure(t *testing.T) {
	oracle := newStubOracle(byPrompt(echo, func(domain.SummaryRequest) (string, error) {
		return "", errProvider
	}))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 10))
	require.NoError(t, err)

	desc, err := s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: "A"}, {RawText: "B"}})

	assert.Nil(t, desc)
	assert.ErrorIs(t, err, domain.ErrCompletion)
	var ce *domain.CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, domain.ChunkTypeChannel, ce.ChunkType)
	assert.Equal(t, -1, ce.ItemIndex)
	assert.Equal(t, 0, ce.Pass)
}

func TestSummarizer_ChainedPassesPriorContext(t *testing.T) {
	oracle := newStubOracle(func(_ context.Context, req domain.SummaryRequest) (string, error) {
		return "sum(" + strings.TrimSpace(req.Text) + ")", nil
	})
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeChained, 1))
	require.NoError(t, err)

	_, err = s.Annotate(context.Background(), []domain.SourceItem{
		{RawText: "a b c"},
		{RawText: "d e"},
	})
	require.NoError(t, err)

	reqs := oracle.requests()
	require.Len(t, reqs, 5)

	expectedPrior := []string{"", "sum(a)", "sum(b)", "", "sum(d)"}
	for i, r := range reqs {
		assert.Equal(t, expectedPrior[i], r.PriorContext, "call %d", i)
		assert.Equal(t, testSubtitlePrompt, r.SystemPrompt)
	}
	assert.Equal(t, int32(1), oracle.maxSeen.Load(), "chained mode is strictly sequential")
}

func TestSummarizer_IndependentHasNoPriorContext(t *testing.T) {
	oracle := echoOracle()
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 1))
	require.NoError(t, err)

	_, err = s.Annotate(context.Background(), []domain.SourceItem{{RawText: "a b c"}})
	require.NoError(t, err)

	for _, r := range oracle.requests() {
		assert.Empty(t, r.PriorContext)
	}
}

func TestSummarizer_MaxConcurrency(t *testing.T) {
	oracle := newStubOracle(func(_ context.Context, req domain.SummaryRequest) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return req.Text, nil
	})
	cfg := testSettings(domain.SummaryModeIndependent, 1)
	cfg.MaxConcurrency = 2
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg)
	require.NoError(t, err)

	_, err = s.Annotate(context.Background(), []domain.SourceItem{
		{RawText: words(6)}, {RawText: words(6)}, {RawText: words(6)},
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, oracle.maxSeen.Load(), int32(2))
	assert.Len(t, oracle.requests(), 18)
}

func TestSummarizer_RecursesUntilWithinBudget(t *testing.T) {
	oracle := newStubOracle(byPrompt(echo, func(req domain.SummaryRequest) (string, error) {
		if strings.Contains(req.Text, "x") {
			return "done", nil
		}
		return "x x x x x x x x", nil
	}))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 5))
	require.NoError(t, err)

	desc, err := s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: "A"}})

	require.NoError(t, err)
	assert.Equal(t, 2, desc.Passes)
	assert.Equal(t, "done done", desc.Text)

	channel := oracle.requestsFor(testChannelPrompt)
	require.Len(t, channel, 3)
	assert.Equal(t, "A", channel[0].Text)
}

func TestSummarizer_ReductionDiverges(t *testing.T) {
	oracle := newStubOracle(byPrompt(echo, func(domain.SummaryRequest) (string, error) {
		return "x x x x x x x x", nil
	}))
	cfg := testSettings(domain.SummaryModeChained, 5)
	cfg.MaxPasses = 3
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg)
	require.NoError(t, err)

	desc, err := s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: "A"}})

	assert.Nil(t, desc)
	assert.ErrorIs(t, err, domain.ErrReductionDiverged)
	assert.Contains(t, err.Error(), "after 3 passes")
}

func TestSummarizer_ChannelPassResetsContext(t *testing.T) {
	oracle := newStubOracle(byPrompt(
		func(req domain.SummaryRequest) (string, error) { return req.Text, nil },
		func(req domain.SummaryRequest) (string, error) { return "c", nil },
	))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeChained, 2))
	require.NoError(t, err)

	_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: "p q r"}})
	require.NoError(t, err)

	channel := oracle.requestsFor(testChannelPrompt)
	require.Len(t, channel, 2)
	assert.Empty(t, channel[0].PriorContext)
	assert.Equal(t, "c", channel[1].PriorContext)
}

func TestSummarizer_EmptyInputs(t *testing.T) {
	t.Run("no items", func(t *testing.T) {
		oracle := echoOracle()
		s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 10))
		require.NoError(t, err)

		desc, err := s.SummarizeCollection(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, desc.Text)
		assert.Zero(t, desc.Items)
		assert.Zero(t, desc.Passes)
		assert.Empty(t, oracle.requests())
	})

	t.Run("items without subtitles are skipped", func(t *testing.T) {
		oracle := echoOracle()
		s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeChained, 10))
		require.NoError(t, err)

		desc, err := s.SummarizeCollection(context.Background(), []domain.SourceItem{
			{RawText: ""}, {RawText: "only one"}, {RawText: ""},
		})

		require.NoError(t, err)
		assert.Equal(t, "only one", desc.Text)
		assert.Equal(t, 1, desc.Items)
		assert.Len(t, oracle.requests(), 2)
	})
}

func TestSummarizer_RequestFields(t *testing.T) {
	oracle := echoOracle()
	cfg := testSettings(domain.SummaryModeIndependent, 10)
	cfg.MaxOutputTokens = 321
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, cfg, WithModel("gpt-4"))
	require.NoError(t, err)

	_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: "hello"}})
	require.NoError(t, err)

	reqs := oracle.requests()
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, 321, r.MaxOutputTokens)
		assert.Equal(t, "gpt-4", r.Model)
	}
	assert.Equal(t, testSubtitlePrompt, reqs[0].SystemPrompt)
	assert.Equal(t, testChannelPrompt, reqs[1].SystemPrompt)
}

func TestSummarizer_TrimsSummaries(t *testing.T) {
	oracle := newStubOracle(byPrompt(
		func(req domain.SummaryRequest) (string, error) { return "  padded \n", nil },
		echo,
	))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 1))
	require.NoError(t, err)

	annotations, err := s.Annotate(context.Background(), []domain.SourceItem{{RawText: "a b"}})

	require.NoError(t, err)
	assert.Equal(t, "padded padded", annotations[0].Text)
}

func TestSummarizer_SkipsEmptySummaries(t *testing.T) {
	for _, mode := range bothModes {
		t.Run(string(mode), func(t *testing.T) {
			splitter := newTestSplitter()
			text := words(25)
			chunks, err := splitter.Split(text, 10)
			require.NoError(t, err)
			require.Len(t, chunks, 3)
			index := make(map[string]int, len(chunks))
			for i, c := range chunks {
				index[c] = i
			}

			oracle := newStubOracle(byPrompt(
				func(req domain.SummaryRequest) (string, error) {
					if index[req.Text] == 1 {
						return "  ", nil
					}
					return fmt.Sprintf("S%d", index[req.Text]), nil
				},
				echo,
			))
			s, err := NewSummarizer(splitter, oracle, testPrompts, testSettings(mode, 10))
			require.NoError(t, err)

			annotations, err := s.Annotate(context.Background(), []domain.SourceItem{{RawText: text}})

			require.NoError(t, err)
			assert.Equal(t, "S0 S2", annotations[0].Text)
		})
	}
}

func TestSummarizer_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	oracle := newStubOracle(func(ctx context.Context, req domain.SummaryRequest) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	})
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts, testSettings(domain.SummaryModeIndependent, 1))
	require.NoError(t, err)

	_, err = s.SummarizeCollection(ctx, []domain.SourceItem{{RawText: words(4)}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrCompletion)
}

func TestSummarizer_TokenizationFailure(t *testing.T) {
	s, err := NewSummarizer(failingSplitter{}, echoOracle(), testPrompts, testSettings(domain.SummaryModeIndependent, 10))
	require.NoError(t, err)

	_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{{RawText: "x"}})

	assert.ErrorIs(t, err, domain.ErrTokenization)
	assert.Contains(t, err.Error(), "splitting item 1")
}

func TestSummarizer_LogsOneBasedPositions(t *testing.T) {
	log, rec := logger.NewRecorder()
	oracle := newStubOracle(byPrompt(echo, func(domain.SummaryRequest) (string, error) { return "ok", nil }))
	s, err := NewSummarizer(newTestSplitter(), oracle, testPrompts,
		testSettings(domain.SummaryModeChained, 2),
		WithSummarizerLogger(log), WithModel("gpt-4"))
	require.NoError(t, err)

	_, err = s.SummarizeCollection(context.Background(), []domain.SourceItem{{Title: "t", RawText: words(3)}})
	require.NoError(t, err)

	events := rec.Events("chunk.summarize")
	require.NotEmpty(t, events)

	first := events[0]
	assert.Equal(t, "SUBTITLES", first.Attrs["type"])
	assert.Equal(t, int64(1), first.Attrs["item"])
	assert.Equal(t, int64(1), first.Attrs["chunk"])
	assert.Equal(t, int64(2), first.Attrs["chunks"])
	assert.Equal(t, "gpt-4", first.Attrs["model"])

	last := events[len(events)-1]
	assert.Equal(t, "CHANNEL", last.Attrs["type"])
	assert.Equal(t, int64(1), last.Attrs["pass"])

	assert.Len(t, rec.Events("item.annotated"), 1)
	assert.Len(t, rec.Events("channel.pass"), 1)
	assert.Len(t, rec.Events("collection.done"), 1)
}

func TestLoadSummaryPrompts(t *testing.T) {
	t.Run("loads both prompts", func(t *testing.T) {
		p, err := LoadSummaryPrompts(mapPrompts{
			driven.PromptSubtitleSummary: "sub",
			driven.PromptChannelSummary:  "chan",
		})
		require.NoError(t, err)
		assert.Equal(t, SummaryPrompts{Subtitle: "sub", Channel: "chan"}, p)
	})

	t.Run("missing prompt", func(t *testing.T) {
		_, err := LoadSummaryPrompts(mapPrompts{driven.PromptSubtitleSummary: "sub"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "channel prompt")
	})
}

type failingSplitter struct{}

func (failingSplitter) Split(string, int) ([]string, error) {
	return nil, fmt.Errorf("%w: bad bytes", domain.ErrTokenization)
}

func (failingSplitter) Count(string) (int, error) {
	return 0, fmt.Errorf("%w: bad bytes", domain.ErrTokenization)
}
