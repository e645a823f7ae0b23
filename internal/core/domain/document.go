package domain

import (
	"fmt"
	"time"
)

// Document is a corpus file tracked across immutable versions.
// Its identity is the path relative to the corpus root.
type Document struct {
	// ID is the store-assigned identifier.
	ID int64

	// Path is the slash-separated path relative to the corpus root.
	Path string

	// Fingerprint is the digest of the raw text that produced MaxVersion.
	// Rollback does not change it. It is empty while MaxVersion is being
	// written and after a failed ingest.
	Fingerprint string

	// ActiveVersion is the version currently served for retrieval.
	ActiveVersion int

	// MaxVersion is the highest version ever created.
	MaxVersion int

	// UpdatedAt is when the document row last changed.
	UpdatedAt time.Time
}

// HasVersion reports whether v names a stored version.
func (d *Document) HasVersion(v int) bool {
	return v >= 1 && v <= d.MaxVersion
}

// ValidateVersion returns ErrInvalidRange if v is outside [1, MaxVersion].
func (d *Document) ValidateVersion(v int) error {
	if !d.HasVersion(v) {
		return fmt.Errorf("%w: version %d not in 1..%d", ErrInvalidRange, v, d.MaxVersion)
	}
	return nil
}

// Versions lists every stored version number in ascending order.
func (d *Document) Versions() []int {
	out := make([]int, 0, d.MaxVersion)
	for v := 1; v <= d.MaxVersion; v++ {
		out = append(out, v)
	}
	return out
}

// ShortFingerprint returns the first 12 hex characters of the fingerprint.
func (d *Document) ShortFingerprint() string {
	if len(d.Fingerprint) <= 12 {
		return d.Fingerprint
	}
	return d.Fingerprint[:12]
}

// Chunk is one window of a document version.
// Chunks are immutable once written; the tuple (DocumentID, Version, Ordinal)
// is unique.
type Chunk struct {
	// ID is the store-assigned identifier, used as the vector index key.
	ID int64

	// DocumentID links to the parent Document.
	DocumentID int64

	// Ordinal is the 0-based position within the version.
	Ordinal int

	// Fingerprint is the digest of Text.
	Fingerprint string

	// Text is the raw chunk content.
	Text string

	// Version is the document version this chunk belongs to.
	Version int

	// CreatedAt is when the chunk row was written.
	CreatedAt time.Time
}

// NewChunk is a chunk to be written for a version.
type NewChunk struct {
	Ordinal     int
	Fingerprint string
	Text        string
}

// VersionClaim is the outcome of atomically claiming a new version.
type VersionClaim struct {
	// Document is the row after the claim. When Changed is false it is the
	// unchanged existing row.
	Document *Document

	// Previous is the row before the claim, nil for a first ingest.
	Previous *Document

	// Changed is false when the fingerprint matched the stored one.
	Changed bool
}

// DocumentStatus summarises one document for listing.
type DocumentStatus struct {
	Path          string    `json:"path"`
	Fingerprint   string    `json:"doc_hash"`
	ActiveVersion int       `json:"active_version"`
	MaxVersion    int       `json:"max_version"`
	ActiveChunks  int       `json:"active_chunks"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StatusReport lists all documents plus the chunk count across versions.
type StatusReport struct {
	Documents   []DocumentStatus `json:"documents"`
	TotalChunks int              `json:"total_chunks_all_versions"`
}

// VersionInfo lists the versions of one document.
type VersionInfo struct {
	Path          string `json:"path"`
	ActiveVersion int    `json:"active_version"`
	MaxVersion    int    `json:"max_version"`
	Versions      []int  `json:"versions"`
}
