package driven

import "context"

// Corpus is the directory tree of source documents.
// Paths are slash-separated and relative to the corpus root.
type Corpus interface {
	// List returns the eligible document paths (text-like extension,
	// not hidden) in lexical order.
	List(ctx context.Context) ([]string, error)

	// Read returns the content of path as UTF-8, replacing invalid bytes.
	Read(ctx context.Context, path string) (string, error)

	// Write replaces the content of path, creating parent directories.
	Write(ctx context.Context, path, content string) error

	// Resolve maps a relative path to an absolute one inside the root.
	// Returns domain.ErrInvalidPath if the path escapes the root.
	Resolve(path string) (string, error)

	// Root returns the absolute corpus root.
	Root() string
}

// CorpusWatcher reports changed document paths as they happen.
type CorpusWatcher interface {
	// Watch streams slash-separated relative paths of changed documents.
	// The channel is closed when ctx is done or the watcher fails.
	Watch(ctx context.Context) (<-chan string, error)
}
