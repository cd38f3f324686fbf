package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Saver implements the interfaces.
var (
	_ driven.Saver              = (*Saver)(nil)
	_ driven.DescriptionHistory = (*Saver)(nil)
)

// Saver keeps saved descriptions in memory, keyed by destination.
type Saver struct {
	mu      sync.RWMutex
	records map[string][]domain.SavedDescription
	now     func() time.Time
}

// NewSaver creates a new in-memory saver.
func NewSaver() *Saver {
	return &Saver{
		records: make(map[string][]domain.SavedDescription),
		now:     time.Now,
	}
}

// Name returns the saver name.
func (s *Saver) Name() string {
	return string(domain.SaveTargetMemory)
}

// Save appends a record under destination.
func (s *Saver) Save(_ context.Context, id, content, destination string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[destination] = append(s.records[destination], domain.SavedDescription{
		ID:          id,
		Description: content,
		SavedAt:     s.now(),
	})
	return nil
}

// Records returns a copy of the records saved under destination, oldest first.
func (s *Saver) Records(destination string) []domain.SavedDescription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SavedDescription, len(s.records[destination]))
	copy(out, s.records[destination])
	return out
}

// List returns records for id across all destinations, newest first.
func (s *Saver) List(_ context.Context, id string, limit int) ([]domain.SavedDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SavedDescription
	for _, recs := range s.records {
		for _, r := range recs {
			if id == "" || r.ID == id {
				out = append(out, r)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
