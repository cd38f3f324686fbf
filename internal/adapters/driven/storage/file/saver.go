// Package file saves channel descriptions to a JSON array on disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Saver implements the interface.
var _ driven.Saver = (*Saver)(nil)

// Record is one entry of a description file.
type Record struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	SavedAt     string `json:"saved_at"`
}

// Saver appends descriptions to a JSON array file.
type Saver struct {
	mu  sync.Mutex
	now func() time.Time
}

// NewSaver creates a file saver.
func NewSaver() *Saver {
	return &Saver{now: time.Now}
}

// Name returns the saver name.
func (s *Saver) Name() string {
	return string(domain.SaveTargetFile)
}

// Save appends a record to the JSON array at destination, creating the file
// and its parent directories when missing. The file is replaced atomically.
func (s *Saver) Save(ctx context.Context, id, content, destination string) error {
	if destination == "" {
		return fmt.Errorf("%w: destination path is required", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(destination); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	existing, err := os.ReadFile(destination)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", destination, err)
	}
	data, err := Append(existing, Record{
		ID:          id,
		Description: content,
		SavedAt:     s.now().Format(domain.SavedAtLayout),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", destination, err)
	}
	return writeAtomic(destination, data)
}

// Append decodes the JSON array in existing, appends rec and returns the
// re-encoded array with 4-space indentation. Empty input is an empty array.
func Append(existing []byte, rec Record) ([]byte, error) {
	records, err := Decode(existing)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(append(records, rec), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a JSON array of records. Empty input holds no records.
func Decode(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return records, nil
}

// ReadRecords loads the records in path. A missing or empty file holds no
// records.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
