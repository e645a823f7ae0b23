package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages versions and raw content of corpus documents.
type DocumentService struct {
	store  driven.VersionStore
	corpus driven.Corpus
	locks  *PathLocks
	now    func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.VersionStore, corpus driven.Corpus, locks *PathLocks) *DocumentService {
	if locks == nil {
		locks = NewPathLocks()
	}
	return &DocumentService{
		store:  store,
		corpus: corpus,
		locks:  locks,
		now:    time.Now,
	}
}

// Status lists every document with its active chunk count.
func (s *DocumentService) Status(ctx context.Context) (*domain.StatusReport, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.StatusReport{Documents: make([]domain.DocumentStatus, 0, len(docs))}
	for i := range docs {
		d := &docs[i]
		chunks, err := s.store.ListChunks(ctx, d.ID, d.ActiveVersion)
		if err != nil {
			return nil, fmt.Errorf("count chunks of %s: %w", d.Path, err)
		}
		report.Documents = append(report.Documents, domain.DocumentStatus{
			Path:          d.Path,
			Fingerprint:   d.ShortFingerprint(),
			ActiveVersion: d.ActiveVersion,
			MaxVersion:    d.MaxVersion,
			ActiveChunks:  len(chunks),
			UpdatedAt:     d.UpdatedAt,
		})
	}

	report.TotalChunks, err = s.store.CountChunks(ctx)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Versions lists the stored versions of a document.
func (s *DocumentService) Versions(ctx context.Context, path string) (*domain.VersionInfo, error) {
	doc, err := s.store.GetDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	return &domain.VersionInfo{
		Path:          doc.Path,
		ActiveVersion: doc.ActiveVersion,
		MaxVersion:    doc.MaxVersion,
		Versions:      doc.Versions(),
	}, nil
}

// Rollback points retrieval at version. The fingerprint is kept, so an
// unchanged file is not re-ingested afterwards.
func (s *DocumentService) Rollback(ctx context.Context, path string, version int) (*domain.Document, error) {
	unlock := s.locks.Lock(path)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := doc.ValidateVersion(version); err != nil {
		return nil, err
	}

	updated, err := s.store.SetActiveVersion(ctx, path, version, s.now())
	if err != nil {
		return nil, err
	}
	logger.Info("%s: active version %d -> %d", path, doc.ActiveVersion, version)
	return updated, nil
}

// Diff compares two stored versions chunk by chunk.
func (s *DocumentService) Diff(ctx context.Context, path string, fromVersion, toVersion int) (*domain.DiffReport, error) {
	doc, err := s.store.GetDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, v := range []int{fromVersion, toVersion} {
		if err := doc.ValidateVersion(v); err != nil {
			return nil, err
		}
	}
	return DiffVersions(ctx, s.store, path, fromVersion, toVersion)
}

// ReadContent returns the current corpus file content.
func (s *DocumentService) ReadContent(ctx context.Context, path string) (string, error) {
	return s.corpus.Read(ctx, path)
}

// WriteContent replaces the corpus file content. It does not ingest.
func (s *DocumentService) WriteContent(ctx context.Context, path, content string) error {
	return s.corpus.Write(ctx, path, content)
}
