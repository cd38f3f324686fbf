package driven

import (
	"context"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

// Saver persists a finished channel description.
// How records are merged with existing data is up to the implementation.
type Saver interface {
	// Save stores content under id at destination.
	// The meaning of destination depends on the implementation: a file path,
	// a database path or connection string, or an object URL.
	Save(ctx context.Context, id, content, destination string) error

	// Name identifies the saver, e.g. "file".
	Name() string
}

// DescriptionHistory lists previously saved descriptions.
type DescriptionHistory interface {
	// List returns saved descriptions for id, newest first.
	// An empty id lists every channel.
	List(ctx context.Context, id string, limit int) ([]domain.SavedDescription, error)
}

// SaverFactory resolves the saver for a save target.
type SaverFactory interface {
	// Saver returns the saver for target, or an error wrapping
	// domain.ErrUnsupportedSaveTarget.
	Saver(target domain.SaveTarget) (Saver, error)
}
