// Package storage selects the saver for a configured save target.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/gcs"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/mongodb"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.SaverFactory = (*Registry)(nil)

// NewSaver creates a saver for target.
func NewSaver(target domain.SaveTarget) (driven.Saver, error) {
	switch target {
	case domain.SaveTargetFile:
		return file.NewSaver(), nil
	case domain.SaveTargetSQLite:
		return sqlite.NewSaver(), nil
	case domain.SaveTargetPostgres:
		return postgres.NewSaver(), nil
	case domain.SaveTargetMongoDB:
		return mongodb.NewSaver(), nil
	case domain.SaveTargetGCS:
		return gcs.NewSaver(gcs.WithAccessToken(os.Getenv(gcs.AccessTokenEnv))), nil
	case domain.SaveTargetMemory:
		return memory.NewSaver(), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSaveTarget, target)
	}
}

// Registry creates savers on first use and reuses them afterwards.
type Registry struct {
	mu     sync.Mutex
	savers map[domain.SaveTarget]driven.Saver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{savers: make(map[domain.SaveTarget]driven.Saver)}
}

// Register installs a saver for target, replacing any existing one.
func (r *Registry) Register(target domain.SaveTarget, saver driven.Saver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savers[target] = saver
}

// Saver returns the saver for target.
func (r *Registry) Saver(target domain.SaveTarget) (driven.Saver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.savers[target]; ok {
		return s, nil
	}
	s, err := NewSaver(target)
	if err != nil {
		return nil, err
	}
	r.savers[target] = s
	return s, nil
}

// Close closes every saver that holds connections.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for target, s := range r.savers {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s saver: %w", target, err))
			}
		}
		delete(r.savers, target)
	}
	return errors.Join(errs...)
}
