package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
)

func newTestSaver() *Saver {
	s := NewSaver()
	s.now = func() time.Time { return time.Date(2024, 5, 17, 9, 30, 5, 0, time.UTC) }
	return s
}

func TestSaver_Name(t *testing.T) {
	assert.Equal(t, "file", NewSaver().Name())
}

func TestSaver_CreatesFileAndDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "nested", "desc.json")

	err := newTestSaver().Save(context.Background(), "UC1", "a channel about Go", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `[
    {
        "id": "UC1",
        "description": "a channel about Go",
        "saved_at": "17-05-2024 09:30:05"
    }
]
`
	assert.Equal(t, want, string(data))
}

func TestSaver_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.json")
	s := newTestSaver()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "UC1", "first", path))
	require.NoError(t, s.Save(ctx, "UC2", "second", path))

	records, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{ID: "UC1", Description: "first", SavedAt: "17-05-2024 09:30:05"}, records[0])
	assert.Equal(t, "second", records[1].Description)
}

func TestSaver_EmptyExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	require.NoError(t, newTestSaver().Save(context.Background(), "UC1", "x", path))

	records, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSaver_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	err := newTestSaver().Save(context.Background(), "UC1", "x", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
	data, _ := os.ReadFile(path)
	assert.Equal(t, "{not json", string(data))
}

func TestSaver_InvalidInput(t *testing.T) {
	err := newTestSaver().Save(context.Background(), "UC1", "x", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "desc.json")
	err := newTestSaver().Save(ctx, "UC1", "x", path)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestSaver_ConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.json")
	s := newTestSaver()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Save(context.Background(), "UC1", strings.Repeat("x", i+1), path))
		}()
	}
	wg.Wait()

	records, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, records, 20)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestReadRecords_Missing(t *testing.T) {
	records, err := ReadRecords(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppend(t *testing.T) {
	rec := Record{ID: "UC1", Description: "d", SavedAt: "01-01-2024 00:00:00"}

	tests := []struct {
		name     string
		existing string
		want     int
		wantErr  bool
	}{
		{"nil input", "", 1, false},
		{"whitespace", "  \n", 1, false},
		{"empty array", "[]", 1, false},
		{"one record", `[{"id":"UC0","description":"x","saved_at":"s"}]`, 2, false},
		{"object", `{"id":"UC0"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Append([]byte(tt.existing), rec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			records, err := Decode(data)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
			assert.Equal(t, rec, records[len(records)-1])
			assert.True(t, strings.HasPrefix(string(data), "[\n    {"))
		})
	}
}
