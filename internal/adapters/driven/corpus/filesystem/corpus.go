// Package filesystem provides the document corpus backed by a local
// directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// Ensure Corpus implements the interface.
var _ driven.Corpus = (*Corpus)(nil)

// Extensions lists the file extensions treated as documents.
var Extensions = []string{".md", ".txt"}

// Corpus is a directory of text documents.
type Corpus struct {
	root string

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a corpus rooted at root. The directory need not exist yet.
func New(root string) (*Corpus, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus root: %w", err)
	}
	return &Corpus{root: abs}, nil
}

// Root returns the absolute corpus root.
func (c *Corpus) Root() string {
	return c.root
}

// List walks the root and returns eligible document paths in lexical order.
// A missing root is an empty corpus. Entries below the root that cannot be
// read are logged and skipped.
func (c *Corpus) List(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return c.walkError(path, d, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != c.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !IsDocument(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// walkError decides how List reacts to err at path. Only errors on the
// root abort the walk.
func (c *Corpus) walkError(path string, d fs.DirEntry, err error) error {
	if path == c.root {
		if errors.Is(err, fs.ErrNotExist) {
			return fs.SkipAll
		}
		return err
	}
	logger.Warn("corpus: skipping %s: %v", path, err)
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// Read returns the content of path. Invalid UTF-8 sequences are dropped.
func (c *Corpus) Read(_ context.Context, path string) (string, error) {
	abs, err := c.Resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// Write replaces the content of path, creating parent directories.
func (c *Corpus) Write(_ context.Context, path, content string) error {
	abs, err := c.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Resolve maps a slash-separated relative path to an absolute path strictly
// inside the root. Backslashes and leading slashes are normalised first.
// Symbolic links along the existing part of the path must stay inside the
// root too.
func (c *Corpus) Resolve(path string) (string, error) {
	name := strings.TrimLeft(strings.ReplaceAll(path, `\`, "/"), "/")
	if name == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidPath)
	}

	abs := filepath.Join(c.root, filepath.FromSlash(name))
	if !within(c.root, abs) {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidPath, path)
	}
	ok, err := c.linksInside(abs)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s leaves the corpus through a link", domain.ErrInvalidPath, path)
	}
	return abs, nil
}

// linksInside resolves the symbolic links in the longest existing prefix of
// abs and reports whether the result is still below the root. A dangling
// link counts as leaving the root.
func (c *Corpus) linksInside(abs string) (bool, error) {
	root, err := filepath.EvalSymlinks(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	existing, rest := abs, ""
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return within(root, filepath.Join(resolved, rest)), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
		if _, lerr := os.Lstat(existing); lerr == nil {
			return false, nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return true, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

// within reports whether target lies strictly below root.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Watch reports the relative paths of documents that are created, written,
// removed or renamed under the root. Directories created after the watch
// starts are followed. The channel closes when ctx is done or the corpus is
// closed.
func (c *Corpus) Watch(ctx context.Context) (<-chan string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("corpus is closed")
	}
	if c.watcher != nil {
		return nil, errors.New("corpus is already being watched")
	}

	info, err := os.Stat(c.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.root); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan string)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Corpus) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- string) {
	defer close(changes)
	defer c.stopWatch(watcher)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					_ = c.addTree(watcher, event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			rel, ok := c.documentPath(event.Name)
			if !ok {
				continue
			}
			select {
			case changes <- rel:
			case <-ctx.Done():
				return
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// documentPath returns the relative path of an eligible document event.
func (c *Corpus) documentPath(abs string) (string, bool) {
	rel, err := filepath.Rel(c.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if isHidden(part) {
			return "", false
		}
	}
	if !IsDocument(rel) {
		return "", false
	}
	return rel, true
}

// addTree watches dir and every non-hidden directory below it.
func (c *Corpus) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (c *Corpus) stopWatch(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == watcher {
		c.watcher = nil
	}
	watcher.Close()
}

// Close stops any active watch. It is idempotent.
func (c *Corpus) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher != nil {
		c.watcher.Close()
	}
	return nil
}

// IsDocument reports whether name has a document extension.
func IsDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
