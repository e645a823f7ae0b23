package domain

import "time"

// IngestSummary reports the counters of one ingestion pass.
type IngestSummary struct {
	// RunID identifies the pass in logs.
	RunID string `json:"run_id"`

	DocsScanned       int `json:"docs_scanned"`
	DocsChanged       int `json:"docs_changed"`
	DocsUnchanged     int `json:"docs_unchanged"`
	DocsFailed        int `json:"docs_failed"`
	ChunksAdded       int `json:"chunks_added"`
	ChunksUpdated     int `json:"chunks_updated"`
	ChunksDeactivated int `json:"chunks_deactivated"`
	EmbedCalls        int `json:"embed_calls"`

	// Elapsed is the wall-clock duration of the pass.
	Elapsed time.Duration `json:"elapsed"`

	// Failures lists documents skipped because of a per-file error.
	Failures []DocumentFailure `json:"failures,omitempty"`
}

// DocumentFailure records why one document was skipped during ingestion.
type DocumentFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IngestOptions overrides the configured chunking for one pass.
type IngestOptions struct {
	// Chunking is used when non-zero.
	Chunking ChunkSettings
}
