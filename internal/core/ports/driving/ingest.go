package driving

import (
	"context"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// IngestService walks the corpus and records new document versions.
type IngestService interface {
	// Ingest runs one pass over the whole corpus. Per-document failures are
	// reported in the summary; only corpus-level failures return an error.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestSummary, error)
}

// WatchService re-ingests the corpus whenever it changes.
type WatchService interface {
	// Start runs an initial pass, then one pass per burst of changes.
	// It blocks until ctx is done or Stop is called.
	Start(ctx context.Context) error

	// Stop ends a running Start and waits for the current pass.
	Stop() error
}
