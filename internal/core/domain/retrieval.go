package domain

import "strings"

// snippetLength is the maximum citation snippet length in characters.
const snippetLength = 220

// ScoredHit is a similarity hit from the vector index.
type ScoredHit struct {
	ChunkID int64
	Score   float64
}

// RetrievedContext is a chunk resolved through the store, with its
// similarity score. When admitted by the gate it grounds an answer.
type RetrievedContext struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	SourcePath string  `json:"source_path"`
	Version    int     `json:"version"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Citation is the caller-facing reference to an admitted context.
type Citation struct {
	SourcePath string  `json:"source_path"`
	ChunkID    int64   `json:"chunk_id"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

// CitationFor builds a citation with a single-line, bounded snippet.
func CitationFor(c RetrievedContext) Citation {
	return Citation{
		SourcePath: c.SourcePath,
		ChunkID:    c.ChunkID,
		Score:      c.Score,
		Snippet:    Snippet(c.Text, snippetLength),
	}
}

// Snippet flattens newlines and truncates text to max runes plus an ellipsis.
func Snippet(text string, max int) string {
	s := strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
