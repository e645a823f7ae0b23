package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// VersionStore persists documents and their chunks across all versions.
// It is the single source of truth for what changed. Chunks are append-only.
type VersionStore interface {
	// GetDocument retrieves a document by corpus-relative path.
	// Returns domain.ErrNotFound if the path was never ingested.
	GetDocument(ctx context.Context, path string) (*domain.Document, error)

	// UpsertDocument inserts or replaces the document row for path.
	// Identical inputs are idempotent.
	UpsertDocument(
		ctx context.Context, path, fingerprint string, activeVersion, maxVersion int, ts time.Time,
	) (*domain.Document, error)

	// ClaimVersion atomically compares fingerprint with the stored one and,
	// when different, assigns version max+1 (or 1) as both active and max.
	// The claimed document keeps an empty fingerprint until the caller
	// stores it with UpsertDocument, so a version that was never finished
	// is detected as changed by the next claim.
	ClaimVersion(ctx context.Context, path, fingerprint string, ts time.Time) (*domain.VersionClaim, error)

	// SetActiveVersion points retrieval at version. The caller validates the
	// range. Returns domain.ErrNotFound if path is unknown.
	SetActiveVersion(ctx context.Context, path string, version int, ts time.Time) (*domain.Document, error)

	// ListDocuments returns all documents ordered by path.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListChunks returns the chunks of one version ordered by ordinal.
	ListChunks(ctx context.Context, docID int64, version int) ([]domain.Chunk, error)

	// ListAllChunks returns every chunk of a document ordered by version
	// then ordinal.
	ListAllChunks(ctx context.Context, docID int64) ([]domain.Chunk, error)

	// InsertChunk writes a new chunk row and returns its ID. It never
	// overwrites an existing row.
	InsertChunk(ctx context.Context, docID int64, chunk domain.NewChunk, version int, ts time.Time) (int64, error)

	// InsertChunks writes a version's chunk set in one transaction and
	// returns the IDs in input order.
	InsertChunks(ctx context.Context, docID int64, version int, chunks []domain.NewChunk, ts time.Time) ([]int64, error)

	// RecordVectorRow maps a chunk to its vector index row (idempotent upsert).
	RecordVectorRow(ctx context.Context, chunkID int64, row int) error

	// GetVectorRow returns the vector index row of a chunk.
	// Returns domain.ErrNotFound if the chunk was never embedded.
	GetVectorRow(ctx context.Context, chunkID int64) (int, error)

	// GetChunk retrieves a chunk by ID. Returns domain.ErrNotFound if absent.
	GetChunk(ctx context.Context, chunkID int64) (*domain.Chunk, error)

	// CountChunks counts chunk rows across all documents and versions.
	CountChunks(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
