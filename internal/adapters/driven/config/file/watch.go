package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recap-cli/internal/logger"
)

// Watch reloads prompts whenever a prompt file in the directory changes,
// until ctx is cancelled. It returns once the watcher is registered; events
// are handled on a background goroutine.
func (s *PromptStore) Watch(ctx context.Context, log *slog.Logger) error {
	log = logger.OrDiscard(log)

	// The directory must exist before it can be watched.
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if name, changed := promptChange(event); changed {
					s.Reload()
					log.Info("prompts.reloaded", "prompt", name, "op", event.Op.String())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("prompts.watch_error", "err", err)
			}
		}
	}()
	return nil
}

// promptChange reports whether event touches a known prompt file and
// returns the prompt name.
func promptChange(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".txt") {
		return "", false
	}
	name := strings.TrimSuffix(base, ".txt")
	if _, ok := defaultPrompts[name]; !ok {
		return "", false
	}
	return name, true
}
