package driven

import "context"

// TombstoneChunkID marks a vector row whose chunk mapping was logically
// deleted. The vector itself stays in the backend.
const TombstoneChunkID int64 = -1

// VectorIndex is an append-only nearest-neighbour index keyed by the
// chunk IDs the VersionStore assigns. Scores are inner products over
// unit vectors, i.e. cosine similarity.
type VectorIndex interface {
	// Add appends vectors and returns their rows. Row i is the i-th vector
	// ever added. vectors and chunkIDs must have equal length.
	Add(ctx context.Context, vectors [][]float32, chunkIDs []int64) ([]int, error)

	// Search returns at most k hits sorted by descending score.
	// Tombstoned rows are never returned.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Delete tombstones every row mapped to one of chunkIDs.
	Delete(ctx context.Context, chunkIDs []int64) error

	// Vector returns a copy of the vector stored at row.
	Vector(ctx context.Context, row int) ([]float32, error)

	// Len returns the number of rows, tombstoned rows included.
	Len() int

	// Dimensions returns the vector size.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID int64

	// Score is the inner product with the query.
	Score float64
}
