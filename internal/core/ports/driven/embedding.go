package driven

import "context"

// EmbeddingService turns chunk and query text into vectors.
//
// Vectors are unit length and all Dimensions() long, so the index can score
// with a plain inner product. Adapters: local feature hashing, OpenAI and
// Ollama.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order. Ingest calls it once
	// per changed document with only the chunks whose text changed.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions must match the vector index it writes to.
	Dimensions() int
	ModelName() string

	// Ping checks reachability without embedding anything.
	Ping(ctx context.Context) error
	Close() error
}
