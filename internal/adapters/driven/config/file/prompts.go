package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads the summarisation prompts from user-editable files on disk,
// falling back to compiled-in defaults.
//
// Files are only created on first access, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts are written to new prompt files and used when a file is missing.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSubtitleSummary: `You summarise fragments of video subtitles. Write a short, factual annotation of the fragment: the topics discussed, the main claims and any names, products or places mentioned. Do not add information that is not in the text. If a previous summary is provided, continue from it without repeating it. Answer in the language of the subtitles.`,

	driven.PromptChannelSummary: `You are given annotations of several videos from one channel. Write a concise description of the channel: what it is about, the recurring topics, the style and the intended audience. Do not list the videos one by one. Answer in the language of the annotations.`,
}

// DefaultPrompt returns the compiled-in text for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to prompts/ under ConfigDir.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt text for the given name.
// On first call, initialises the prompt directory and creates default files.
func (s *PromptStore) Load(name string) (string, error) {
	defaultPrompt, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("%w: unknown prompt %q", domain.ErrNotFound, name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return defaultPrompt, nil
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		prompt = defaultPrompt
	}

	// Keep the first value cached by a concurrent load
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Reset overwrites the prompt files with the defaults. With no names, every
// prompt is reset.
func (s *PromptStore) Reset(names ...string) error {
	if len(names) == 0 {
		names = driven.PromptNames()
	}
	for _, name := range names {
		if _, ok := defaultPrompts[name]; !ok {
			return fmt.Errorf("%w: unknown prompt %q", domain.ErrNotFound, name)
		}
	}

	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for _, name := range names {
		if err := os.WriteFile(s.path(name), []byte(defaultPrompts[name]), 0600); err != nil {
			return fmt.Errorf("reset prompt %q: %w", name, err)
		}
	}
	s.Reload()
	return nil
}

// Path returns the file holding the named prompt.
func (s *PromptStore) Path(name string) string {
	return s.path(name)
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, the default files and a README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Recap Prompts

This directory contains the system prompts sent with every summarisation call.

## Files

- ` + "`subtitle_summary.txt`" + ` - Summarises one chunk of video subtitles
- ` + "`channel_summary.txt`" + ` - Condenses video annotations into a channel description

## Customisation

Edit any file to change how summaries are written. Changes take effect on the
next command. An empty file falls back to the built-in prompt, and
` + "`recap prompts reset`" + ` restores the defaults.
`
	return os.WriteFile(path, []byte(content), 0600)
}
