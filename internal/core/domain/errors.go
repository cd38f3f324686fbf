package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the stored configuration cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown provider or strategy name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnsupportedSaveTarget indicates an unknown persistence target.
	ErrUnsupportedSaveTarget = errors.New("unsupported save target")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summarisation is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Pipeline Errors.

	// ErrInvalidBudget indicates a non-positive token budget.
	ErrInvalidBudget = errors.New("invalid token budget")

	// ErrTokenization indicates the tokenizer failed to encode or decode text.
	ErrTokenization = errors.New("tokenization failed")

	// ErrCompletion indicates the summarisation oracle failed.
	ErrCompletion = errors.New("completion failed")

	// ErrReductionDiverged indicates collection-level reduction did not fit
	// the budget within the allowed number of passes.
	ErrReductionDiverged = errors.New("reduction did not converge")

	// ErrFetch indicates the subtitle API returned a non-success response.
	ErrFetch = errors.New("fetch failed")
)

// CompletionError wraps an oracle failure with the position of the chunk
// that caused it. Indices are 0-based; Error renders them 1-based.
type CompletionError struct {
	// ChunkType is SUBTITLES for item-level chunks and CHANNEL for
	// collection-level chunks.
	ChunkType ChunkType

	// ItemIndex is the source item index, or -1 for CHANNEL chunks.
	ItemIndex int

	// ChunkIndex is the chunk position within its reduction.
	ChunkIndex int

	// Pass is the collection-level pass, 0 for SUBTITLES chunks.
	Pass int

	// Err is the underlying oracle error.
	Err error
}

// Error implements error.
func (e *CompletionError) Error() string {
	if e.ChunkType == ChunkTypeChannel {
		return fmt.Sprintf("%s pass %d chunk %d: %v", e.ChunkType, e.Pass+1, e.ChunkIndex+1, e.cause())
	}
	return fmt.Sprintf("%s item %d chunk %d: %v", e.ChunkType, e.ItemIndex+1, e.ChunkIndex+1, e.cause())
}

func (e *CompletionError) cause() error {
	if e.Err == nil {
		return ErrCompletion
	}
	if errors.Is(e.Err, ErrCompletion) {
		return e.Err
	}
	return fmt.Errorf("%w: %w", ErrCompletion, e.Err)
}

// Unwrap returns the underlying oracle error.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCompletion.
func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletion
}

// FetchError is returned when the subtitle API responds with a
// non-success status.
type FetchError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fetch failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch failed: status %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
