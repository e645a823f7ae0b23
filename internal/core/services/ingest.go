package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
	"github.com/custodia-labs/ragvault/internal/logger"
	"github.com/custodia-labs/ragvault/internal/postprocessors/chunker"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService is the incremental ingestion engine. A document whose
// fingerprint is unchanged costs one read and one hash; a changed document
// gets a new version and only its new or changed chunks are embedded.
type IngestService struct {
	store    driven.VersionStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	corpus   driven.Corpus
	chunking domain.ChunkSettings
	locks    *PathLocks
	now      func() time.Time
}

// NewIngestService creates an ingestion engine. locks may be shared with
// DocumentService so rollbacks and ingests of one path do not interleave.
func NewIngestService(
	store driven.VersionStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	corpus driven.Corpus,
	chunking domain.ChunkSettings,
	locks *PathLocks,
) *IngestService {
	if locks == nil {
		locks = NewPathLocks()
	}
	return &IngestService{
		store:    store,
		index:    index,
		embedder: embedder,
		corpus:   corpus,
		chunking: chunking,
		locks:    locks,
		now:      time.Now,
	}
}

// docOutcome holds the counters of one document.
type docOutcome struct {
	changed     bool
	added       int
	updated     int
	deactivated int
	embedCalls  int
}

// Ingest runs one pass over the corpus. A document that cannot be read,
// chunked, stored or embedded is recorded in Failures and the pass goes on.
func (s *IngestService) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestSummary, error) {
	started := time.Now()

	settings := s.chunking
	if !opts.Chunking.IsZero() {
		settings = opts.Chunking
	}
	splitter, err := chunker.New(chunker.WithSettings(settings))
	if err != nil {
		return nil, err
	}

	paths, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	summary := &domain.IngestSummary{RunID: uuid.NewString()}
	logger.Section("Ingest " + summary.RunID)
	logger.Debug("corpus %s: %d documents, chunk size %d overlap %d",
		s.corpus.Root(), len(paths), settings.Size, settings.Overlap)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary.DocsScanned++

		out, err := s.ingestDocument(ctx, splitter, path)
		if err != nil {
			summary.DocsFailed++
			summary.Failures = append(summary.Failures, domain.DocumentFailure{Path: path, Reason: err.Error()})
			logger.Warn("%s: %v", path, err)
			continue
		}
		if !out.changed {
			summary.DocsUnchanged++
			continue
		}
		summary.DocsChanged++
		summary.ChunksAdded += out.added
		summary.ChunksUpdated += out.updated
		summary.ChunksDeactivated += out.deactivated
		summary.EmbedCalls += out.embedCalls
	}

	summary.Elapsed = time.Since(started)
	logger.Info("ingest %s: scanned=%d changed=%d unchanged=%d failed=%d embed_calls=%d in %s",
		summary.RunID, summary.DocsScanned, summary.DocsChanged, summary.DocsUnchanged,
		summary.DocsFailed, summary.EmbedCalls, summary.Elapsed)
	return summary, nil
}

// ingestDocument processes one path under its path lock.
func (s *IngestService) ingestDocument(ctx context.Context, splitter *chunker.Processor, path string) (docOutcome, error) {
	unlock := s.locks.Lock(path)
	defer unlock()

	text, err := s.corpus.Read(ctx, path)
	if err != nil {
		return docOutcome{}, err
	}

	fingerprint := domain.FingerprintString(text)
	claim, err := s.store.ClaimVersion(ctx, path, fingerprint, s.now())
	if err != nil {
		return docOutcome{}, fmt.Errorf("claim version: %w", err)
	}
	if !claim.Changed {
		logger.Debug("%s: unchanged at v%d", path, claim.Document.MaxVersion)
		return docOutcome{}, nil
	}

	doc := claim.Document
	logger.Debug("%s: new version v%d", path, doc.MaxVersion)

	out, err := s.writeVersion(ctx, splitter, doc, claim.Previous, text)
	if err != nil {
		s.releaseFailedVersion(ctx, doc, claim.Previous)
		return docOutcome{}, err
	}

	// The claim left the fingerprint empty; storing it now marks the
	// version complete.
	if _, err := s.store.UpsertDocument(ctx, path, fingerprint, doc.MaxVersion, doc.MaxVersion, s.now()); err != nil {
		s.releaseFailedVersion(ctx, doc, claim.Previous)
		return docOutcome{}, fmt.Errorf("commit v%d: %w", doc.MaxVersion, err)
	}
	return out, nil
}

// baselineChunk is a chunk of the comparison version with its vector row.
type baselineChunk struct {
	chunk domain.Chunk
	row   int
}

// writeVersion stores every chunk of the new version and gives each one a
// vector: new or changed texts in one embedding call, unchanged texts by
// copying the baseline version's stored vector.
func (s *IngestService) writeVersion(
	ctx context.Context, splitter *chunker.Processor, doc, prev *domain.Document, text string,
) (docOutcome, error) {
	out := docOutcome{changed: true}

	previous, err := s.baseline(ctx, doc.ID, prev)
	if err != nil {
		return out, err
	}

	texts := splitter.Split(text)
	newChunks := make([]domain.NewChunk, len(texts))
	for i, t := range texts {
		newChunks[i] = domain.NewChunk{Ordinal: i, Fingerprint: domain.FingerprintString(t), Text: t}
	}
	for ordinal := range previous {
		if ordinal >= len(newChunks) {
			out.deactivated++
		}
	}

	ids, err := s.store.InsertChunks(ctx, doc.ID, doc.MaxVersion, newChunks, s.now())
	if err != nil {
		return out, fmt.Errorf("insert chunks: %w", err)
	}

	var (
		embedTexts []string
		embedIdx   []int
		vectors    = make([][]float32, len(newChunks))
	)
	for i, nc := range newChunks {
		old, existed := previous[nc.Ordinal]
		switch {
		case !existed:
			out.added++
		case old.chunk.Fingerprint != nc.Fingerprint:
			out.updated++
		default:
			vec, err := s.index.Vector(ctx, old.row)
			if err == nil {
				vectors[i] = vec
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return out, fmt.Errorf("vector of chunk %d: %w", old.chunk.ID, err)
			}
			logger.Warn("%s: vector row %d of chunk %d is missing from the index, re-embedding",
				doc.Path, old.row, old.chunk.ID)
		}
		embedTexts = append(embedTexts, nc.Text)
		embedIdx = append(embedIdx, i)
	}

	if len(embedTexts) > 0 {
		embedded, err := s.embedder.EmbedBatch(ctx, embedTexts)
		out.embedCalls++
		if err != nil {
			return out, fmt.Errorf("embed %d chunks: %w", len(embedTexts), asUpstream(err))
		}
		if len(embedded) != len(embedTexts) {
			return out, fmt.Errorf("embed: %w: got %d vectors for %d texts",
				domain.ErrUpstreamUnavailable, len(embedded), len(embedTexts))
		}
		for j, i := range embedIdx {
			vectors[i] = embedded[j]
		}
	}

	if len(vectors) == 0 {
		return out, nil
	}
	rows, err := s.index.Add(ctx, vectors, ids)
	if err != nil {
		return out, fmt.Errorf("add vectors: %w", err)
	}
	for i, row := range rows {
		if err := s.store.RecordVectorRow(ctx, ids[i], row); err != nil {
			return out, fmt.Errorf("record vector row: %w", err)
		}
	}

	logger.Debug("%s v%d: %d chunks, added=%d updated=%d deactivated=%d embedded=%d",
		doc.Path, doc.MaxVersion, len(newChunks), out.added, out.updated, out.deactivated, len(embedTexts))
	return out, nil
}

// baseline returns the chunks of the newest version below the claimed one
// that has chunks and a vector row for each of them, keyed by ordinal.
// Versions left behind by a failed or interrupted pass are passed over, so
// their chunks are never mistaken for embedded ones.
func (s *IngestService) baseline(ctx context.Context, docID int64, prev *domain.Document) (map[int]baselineChunk, error) {
	if prev == nil {
		return nil, nil
	}
	for v := prev.MaxVersion; v >= 1; v-- {
		chunks, err := s.store.ListChunks(ctx, docID, v)
		if err != nil {
			return nil, fmt.Errorf("load v%d chunks: %w", v, err)
		}
		out, complete, err := s.withRows(ctx, chunks)
		if err != nil {
			return nil, err
		}
		if complete {
			return out, nil
		}
		logger.Debug("doc %d: v%d has chunks without vectors, skipping as baseline", docID, v)
	}
	return nil, nil
}

// withRows attaches vector rows to chunks and reports whether the set is
// non-empty and fully embedded.
func (s *IngestService) withRows(ctx context.Context, chunks []domain.Chunk) (map[int]baselineChunk, bool, error) {
	if len(chunks) == 0 {
		return nil, false, nil
	}
	out := make(map[int]baselineChunk, len(chunks))
	for _, c := range chunks {
		row, err := s.store.GetVectorRow(ctx, c.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("vector row of chunk %d: %w", c.ID, err)
		}
		out[c.Ordinal] = baselineChunk{chunk: c, row: row}
	}
	return out, true, nil
}

// releaseFailedVersion clears the stored fingerprint so the next pass
// detects the document as changed again, and points retrieval back at the
// version that was active before the failed one.
func (s *IngestService) releaseFailedVersion(ctx context.Context, doc, prev *domain.Document) {
	active := doc.MaxVersion
	if prev != nil {
		active = prev.ActiveVersion
	}
	ctx = context.WithoutCancel(ctx)
	if _, err := s.store.UpsertDocument(ctx, doc.Path, "", active, doc.MaxVersion, s.now()); err != nil {
		logger.Error("%s: release failed v%d: %v", doc.Path, doc.MaxVersion, err)
	}
}

// asUpstream tags provider errors that adapters did not classify.
func asUpstream(err error) error {
	if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
}
