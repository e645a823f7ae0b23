package driving

import (
	"context"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// DocumentService exposes document versions, rollback, diffing and raw
// content access.
type DocumentService interface {
	// Status lists every document with its active chunk count.
	Status(ctx context.Context) (*domain.StatusReport, error)

	// Versions lists the stored versions of a document.
	Versions(ctx context.Context, path string) (*domain.VersionInfo, error)

	// Rollback sets the active version. The version must be in [1, max].
	Rollback(ctx context.Context, path string, version int) (*domain.Document, error)

	// Diff compares two stored versions chunk by chunk.
	Diff(ctx context.Context, path string, fromVersion, toVersion int) (*domain.DiffReport, error)

	// ReadContent returns the current corpus file content.
	ReadContent(ctx context.Context, path string) (string, error)

	// WriteContent replaces the corpus file content. It does not ingest.
	WriteContent(ctx context.Context, path, content string) error
}
