package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

// Ensure VersionStore implements the interface.
var _ driven.VersionStore = (*VersionStore)(nil)

// VersionStore is an in-memory implementation of driven.VersionStore.
// It mirrors the SQLite store's constraints: paths are unique and
// (document, version, ordinal) is never written twice.
type VersionStore struct {
	mu        sync.RWMutex
	nextDocID int64
	nextChkID int64
	documents map[string]domain.Document
	chunks    map[int64]domain.Chunk
	byDoc     map[int64][]int64
	vectors   map[int64]int
}

// NewVersionStore creates a new in-memory version store.
func NewVersionStore() *VersionStore {
	return &VersionStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[int64]domain.Chunk),
		byDoc:     make(map[int64][]int64),
		vectors:   make(map[int64]int),
	}
}

// GetDocument retrieves a document by path.
func (s *VersionStore) GetDocument(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// UpsertDocument inserts or replaces the document row for path.
func (s *VersionStore) UpsertDocument(
	_ context.Context, path, fingerprint string, activeVersion, maxVersion int, ts time.Time,
) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.putLocked(path, fingerprint, activeVersion, maxVersion, ts)
	return &doc, nil
}

// ClaimVersion assigns the next version when fingerprint changed. The new
// version is stored with an empty fingerprint until the caller commits it.
func (s *VersionStore) ClaimVersion(
	_ context.Context, path, fingerprint string, ts time.Time,
) (*domain.VersionClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.documents[path]
	if ok && prev.Fingerprint == fingerprint {
		return &domain.VersionClaim{Document: &prev, Previous: &prev}, nil
	}

	next := 1
	var previous *domain.Document
	if ok {
		next = prev.MaxVersion + 1
		previous = &prev
	}
	doc := s.putLocked(path, "", next, next, ts)
	return &domain.VersionClaim{Document: &doc, Previous: previous, Changed: true}, nil
}

// SetActiveVersion points retrieval at version.
func (s *VersionStore) SetActiveVersion(
	_ context.Context, path string, version int, ts time.Time,
) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.ActiveVersion = version
	doc.UpdatedAt = ts.Truncate(time.Second).UTC()
	s.documents[path] = doc
	return &doc, nil
}

// ListDocuments returns all documents ordered by path.
func (s *VersionStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// ListChunks returns the chunks of one version ordered by ordinal.
func (s *VersionStore) ListChunks(_ context.Context, docID int64, version int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, id := range s.byDoc[docID] {
		if c := s.chunks[id]; c.Version == version {
			out = append(out, c)
		}
	}
	sortChunks(out)
	return out, nil
}

// ListAllChunks returns every chunk of a document ordered by version then ordinal.
func (s *VersionStore) ListAllChunks(_ context.Context, docID int64) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, 0, len(s.byDoc[docID]))
	for _, id := range s.byDoc[docID] {
		out = append(out, s.chunks[id])
	}
	sortChunks(out)
	return out, nil
}

// InsertChunk writes a single chunk.
func (s *VersionStore) InsertChunk(
	_ context.Context, docID int64, chunk domain.NewChunk, version int, ts time.Time,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFreeLocked(docID, version, []domain.NewChunk{chunk}); err != nil {
		return 0, err
	}
	return s.insertLocked(docID, chunk, version, ts), nil
}

// InsertChunks writes a version's chunk set atomically.
func (s *VersionStore) InsertChunks(
	_ context.Context, docID int64, version int, chunks []domain.NewChunk, ts time.Time,
) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFreeLocked(docID, version, chunks); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, s.insertLocked(docID, c, version, ts))
	}
	return ids, nil
}

// RecordVectorRow maps a chunk to its vector index row.
func (s *VersionStore) RecordVectorRow(_ context.Context, chunkID int64, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[chunkID]; !ok {
		return fmt.Errorf("recording vector row for chunk %d: %w", chunkID, domain.ErrNotFound)
	}
	s.vectors[chunkID] = row
	return nil
}

// GetVectorRow returns the vector index row of a chunk.
func (s *VersionStore) GetVectorRow(_ context.Context, chunkID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.vectors[chunkID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return row, nil
}

// GetChunk retrieves a chunk by ID.
func (s *VersionStore) GetChunk(_ context.Context, chunkID int64) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// CountChunks counts chunks across all versions.
func (s *VersionStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close is a no-op.
func (s *VersionStore) Close() error {
	return nil
}

func (s *VersionStore) putLocked(path, fingerprint string, active, maxVersion int, ts time.Time) domain.Document {
	doc, ok := s.documents[path]
	if !ok {
		s.nextDocID++
		doc = domain.Document{ID: s.nextDocID, Path: path}
	}
	doc.Fingerprint = fingerprint
	doc.ActiveVersion = active
	doc.MaxVersion = maxVersion
	doc.UpdatedAt = ts.Truncate(time.Second).UTC()
	s.documents[path] = doc
	return doc
}

func (s *VersionStore) checkFreeLocked(docID int64, version int, chunks []domain.NewChunk) error {
	taken := make(map[int]bool)
	for _, id := range s.byDoc[docID] {
		if c := s.chunks[id]; c.Version == version {
			taken[c.Ordinal] = true
		}
	}
	for _, c := range chunks {
		if taken[c.Ordinal] {
			return fmt.Errorf("%w: chunk %d of version %d already exists", domain.ErrInvalidInput, c.Ordinal, version)
		}
		taken[c.Ordinal] = true
	}
	return nil
}

func (s *VersionStore) insertLocked(docID int64, c domain.NewChunk, version int, ts time.Time) int64 {
	s.nextChkID++
	id := s.nextChkID
	s.chunks[id] = domain.Chunk{
		ID:          id,
		DocumentID:  docID,
		Ordinal:     c.Ordinal,
		Fingerprint: c.Fingerprint,
		Text:        c.Text,
		Version:     version,
		CreatedAt:   ts.Truncate(time.Second).UTC(),
	}
	s.byDoc[docID] = append(s.byDoc[docID], id)
	return id
}

func sortChunks(chunks []domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Version != chunks[j].Version {
			return chunks[i].Version < chunks[j].Version
		}
		return chunks[i].Ordinal < chunks[j].Ordinal
	})
}
