package domain

// DiffStatus classifies one ordinal between two versions.
type DiffStatus string

// Diff statuses.
const (
	DiffAdded     DiffStatus = "added"
	DiffRemoved   DiffStatus = "removed"
	DiffChanged   DiffStatus = "changed"
	DiffUnchanged DiffStatus = "unchanged"
)

// ChunkDiff is the comparison of one ordinal.
type ChunkDiff struct {
	Ordinal int        `json:"chunk_index"`
	Status  DiffStatus `json:"status"`
	FromLen int        `json:"from_len"`
	ToLen   int        `json:"to_len"`

	// Diff is the unified diff, empty for unchanged ordinals.
	Diff string `json:"diff"`
}

// DiffSummary counts ordinals per status.
type DiffSummary struct {
	Added     int `json:"added"`
	Changed   int `json:"changed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Total     int `json:"total"`
}

// DiffReport is the chunk-level comparison of two versions of a document.
type DiffReport struct {
	Path        string      `json:"path"`
	FromVersion int         `json:"from_version"`
	ToVersion   int         `json:"to_version"`
	Summary     DiffSummary `json:"summary"`
	Chunks      []ChunkDiff `json:"per_chunk"`

	// Combined joins every non-empty per-chunk diff with a blank line.
	Combined string `json:"combined_diff"`
}
