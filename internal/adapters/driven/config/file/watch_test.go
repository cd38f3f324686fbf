package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

func TestPromptChange(t *testing.T) {
	dir := "/prompts"
	tests := []struct {
		name      string
		file      string
		op        fsnotify.Op
		wantName  string
		wantMatch bool
	}{
		{"write prompt", "subtitle_summary.txt", fsnotify.Write, driven.PromptSubtitleSummary, true},
		{"create prompt", "channel_summary.txt", fsnotify.Create, driven.PromptChannelSummary, true},
		{"remove prompt", "channel_summary.txt", fsnotify.Remove, driven.PromptChannelSummary, true},
		{"rename prompt", "subtitle_summary.txt", fsnotify.Rename, driven.PromptSubtitleSummary, true},
		{"chmod not handled", "subtitle_summary.txt", fsnotify.Chmod, "", false},
		{"readme skipped", "README.md", fsnotify.Write, "", false},
		{"unknown prompt skipped", "other.txt", fsnotify.Write, "", false},
		{"hidden file skipped", ".subtitle_summary.txt", fsnotify.Write, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := promptChange(fsnotify.Event{Name: filepath.Join(dir, tt.file), Op: tt.op})
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestPromptStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx, nil))

	// Prime the cache with the default.
	_, err = store.Load(driven.PromptChannelSummary)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(driven.PromptChannelSummary), []byte("edited prompt"), 0600))

	assert.Eventually(t, func() bool {
		text, err := store.Load(driven.PromptChannelSummary)
		return err == nil && text == "edited prompt"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPromptStore_Watch_InitError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	assert.Error(t, store.Watch(context.Background(), nil))
}
