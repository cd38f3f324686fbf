package sqlite

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Saver implements the interface.
var _ driven.Saver = (*Saver)(nil)

// Saver writes descriptions to SQLite databases, opening one Store per
// destination path and reusing it for later saves.
type Saver struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewSaver creates a SQLite saver.
func NewSaver() *Saver {
	return &Saver{stores: make(map[string]*Store)}
}

// Name returns the saver name.
func (s *Saver) Name() string {
	return string(domain.SaveTargetSQLite)
}

// Save inserts the description into the database at destination.
// An empty destination uses DefaultPath.
func (s *Saver) Save(ctx context.Context, id, content, destination string) error {
	store, err := s.store(destination)
	if err != nil {
		return err
	}
	return store.Insert(ctx, id, content)
}

func (s *Saver) store(path string) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[path]; ok {
		return store, nil
	}
	store, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	s.stores[path] = store
	return store, nil
}

// Close closes every opened database.
func (s *Saver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for path, store := range s.stores {
		errs = append(errs, store.Close())
		delete(s.stores, path)
	}
	return errors.Join(errs...)
}
