package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the extension of prompt files.
const promptExt = ".txt"

// promptSpec describes one editable prompt.
type promptSpec struct {
	fallback string
	// verbs is the number of %s verbs the template must keep.
	verbs int
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var prompts = map[string]promptSpec{
	driven.PromptAnswerSystem: {
		fallback: `You MUST answer using ONLY the provided context. Answer the user's question directly and concisely in 2-5 sentences. Do NOT list excerpts. Do NOT mention retrieval, embeddings, or vector databases. If the question asks for personal details (family, identity) or anything not stated in the context, reply exactly: 'I don't have enough information in the indexed documents to answer that.'`,
	},
	driven.PromptAnswerUser: {
		fallback: "Question: %s\n\nContext:\n%s",
		verbs:    2,
	},
}

// defaultPrompts maps each prompt name to its built-in text.
var defaultPrompts = func() map[string]string {
	m := make(map[string]string, len(prompts))
	for name, p := range prompts {
		m[name] = p.fallback
	}
	return m
}()

const promptReadme = "# ragvault prompts\n\n" +
	"Prompts sent to the answer model when an LLM provider is configured.\n\n" +
	"- `answer_system.txt` - system instruction; the model must answer from context only\n" +
	"- `answer_user.txt` - user message; two `%s` placeholders: question, then context\n\n" +
	"Edits take effect on the next command. A file that loses a placeholder is\n" +
	"ignored in favour of the built-in prompt. Delete a file to restore its default.\n"

// PromptStore serves answer prompts from a directory of user-editable
// files. The directory is seeded on first Load; a missing or broken file
// falls back to the built-in prompt.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu     sync.RWMutex
	loaded map[string]string
}

// NewPromptStore creates a prompt store over dir, which defaults to
// ~/.ragvault/prompts. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, loaded: make(map[string]string)}, nil
}

// Load returns the named prompt template.
func (s *PromptStore) Load(name string) (string, error) {
	spec, known := prompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.seedOnce.Do(func() { s.seedErr = s.seed() })
	if s.seedErr != nil {
		logger.Debug("prompts: using built-in %s: %v", name, s.seedErr)
		return spec.fallback, nil
	}

	s.mu.RLock()
	text, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	text = s.read(name, spec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.loaded[name]; ok {
		return cached, nil
	}
	s.loaded[name] = text
	return text, nil
}

// Reload drops cached prompts so edits are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// read returns the file content, or the fallback when the file is missing,
// unreadable or has the wrong number of %s verbs.
func (s *PromptStore) read(name string, spec promptSpec) string {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompts: reading %s: %v", path, err)
		}
		return spec.fallback
	}

	text := strings.TrimSpace(string(data))
	if got := strings.Count(text, "%s"); got != spec.verbs {
		logger.Warn("prompts: %s has %d %%s placeholders, want %d; using built-in", path, got, spec.verbs)
		return spec.fallback
	}
	return text
}

// seed creates the directory, any missing prompt files and the README.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	files := map[string]string{"README.md": promptReadme}
	for name, spec := range prompts {
		files[name+promptExt] = spec.fallback
	}
	for file, content := range files {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return fmt.Errorf("seed %s: %w", file, err)
		}
	}
	return nil
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}
