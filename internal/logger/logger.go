// Package logger provides verbose logging for the recap CLI.
// When verbose mode is enabled via the --verbose flag, progress messages
// are printed to stderr to help users follow the summarisation pipeline.
//
// Services receive a *slog.Logger at construction; New and Default build
// one that renders records as "[LEVEL] message key=value".
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func currentOutput() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// Default returns a structured logger bound to the package-level verbose
// flag and output writer, so SetVerbose and SetOutput apply to it.
func Default() *slog.Logger {
	return slog.New(&Handler{
		mu:      &sync.Mutex{},
		out:     currentOutput,
		verbose: IsVerbose,
	})
}

// New returns a structured logger writing to w. Debug and info records are
// dropped unless verbose is set; warnings and errors are always written.
func New(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(&Handler{
		mu:      &sync.Mutex{},
		out:     func() io.Writer { return w },
		verbose: func() bool { return verbose },
	})
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
