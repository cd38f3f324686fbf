package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrUnsupportedSaveTarget", ErrUnsupportedSaveTarget},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrInvalidBudget", ErrInvalidBudget},
		{"ErrTokenization", ErrTokenization},
		{"ErrCompletion", ErrCompletion},
		{"ErrReductionDiverged", ErrReductionDiverged},
		{"ErrFetch", ErrFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestCompletionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompletionError
		expected string
	}{
		{
			name: "subtitle chunk is 1-based",
			err: &CompletionError{
				ChunkType:  ChunkTypeSubtitles,
				ItemIndex:  1,
				ChunkIndex: 2,
				Err:        errors.New("rate limited"),
			},
			expected: "SUBTITLES item 2 chunk 3: completion failed: rate limited",
		},
		{
			name: "channel chunk reports pass",
			err: &CompletionError{
				ChunkType:  ChunkTypeChannel,
				ItemIndex:  -1,
				ChunkIndex: 0,
				Pass:       1,
				Err:        errors.New("timeout"),
			},
			expected: "CHANNEL pass 2 chunk 1: completion failed: timeout",
		},
		{
			name: "already wrapped cause is not wrapped twice",
			err: &CompletionError{
				ChunkType: ChunkTypeSubtitles,
				Err:       fmt.Errorf("%w: bad gateway", ErrCompletion),
			},
			expected: "SUBTITLES item 1 chunk 1: completion failed: bad gateway",
		},
		{
			name:     "nil cause",
			err:      &CompletionError{ChunkType: ChunkTypeSubtitles},
			expected: "SUBTITLES item 1 chunk 1: completion failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestCompletionError_Is(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("summarising item: %w", &CompletionError{
		ChunkType: ChunkTypeSubtitles,
		Err:       cause,
	})

	assert.ErrorIs(t, err, ErrCompletion)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrFetch)

	var ce *CompletionError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, ChunkTypeSubtitles, ce.ChunkType)
}

func TestFetchError(t *testing.T) {
	t.Run("with message", func(t *testing.T) {
		err := &FetchError{StatusCode: 404, Message: "channel not found"}
		assert.Equal(t, "fetch failed: status 404: channel not found", err.Error())
	})

	t.Run("without message", func(t *testing.T) {
		err := &FetchError{StatusCode: 500}
		assert.Equal(t, "fetch failed: status 500", err.Error())
	})

	t.Run("matches ErrFetch through wrapping", func(t *testing.T) {
		err := fmt.Errorf("fetching items: %w", &FetchError{StatusCode: 502})
		assert.ErrorIs(t, err, ErrFetch)
		assert.NotErrorIs(t, err, ErrCompletion)

		var fe *FetchError
		assert.True(t, errors.As(err, &fe))
		assert.Equal(t, 502, fe.StatusCode)
	})
}
