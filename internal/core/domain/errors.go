package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document, chunk or path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRange indicates a version number outside [1, max_version].
	ErrInvalidRange = errors.New("version out of range")

	// ErrInvalidPath indicates a document path that escapes the corpus root.
	// This is an input-validation failure and must never be retried.
	ErrInvalidPath = errors.New("invalid document path")

	// ErrUpstreamUnavailable indicates the embedding or answer provider failed.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrStorageInconsistency indicates the vector index and its row mapping
	// disagree. It is fatal at startup; queries must not be served.
	ErrStorageInconsistency = errors.New("storage inconsistency")

	// ErrLLMUnavailable indicates no answer provider is configured.
	// Answers fall back to the local heuristic.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
