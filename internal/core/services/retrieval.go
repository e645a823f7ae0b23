package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// Retriever turns a question into scored contexts from each document's
// active version.
type Retriever struct {
	store    driven.VersionStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	topK     int
}

// NewRetriever creates a retriever that pulls topK candidates per query.
func NewRetriever(
	store driven.VersionStore, index driven.VectorIndex, embedder driven.EmbeddingService, topK int,
) *Retriever {
	return &Retriever{store: store, index: index, embedder: embedder, topK: topK}
}

// Retrieve embeds query, searches the index and resolves every hit through
// the store. Hits whose chunk is not in its document's active version are
// dropped, so superseded and rolled-back chunks are never returned even
// though their vectors stay in the index. Unchanged chunks keep one vector
// row per version, so stale copies can crowd the first topK hits; the search
// widens until topK active contexts are found or the index is exhausted.
// The result is not gated.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievedContext, error) {
	if r.topK <= 0 {
		return nil, nil
	}
	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", asUpstream(err))
	}

	var (
		byID     map[int64]domain.Document
		contexts []domain.RetrievedContext
		seen     = make(map[int64]bool)
	)
	for k := r.topK; ; k *= 2 {
		hits, err := r.index.Search(ctx, qvec, k)
		if err != nil {
			return nil, fmt.Errorf("search index: %w", err)
		}
		if len(hits) == 0 {
			return nil, nil
		}
		if byID == nil {
			if byID, err = r.activeDocuments(ctx); err != nil {
				return nil, err
			}
		}

		for _, hit := range hits {
			if seen[hit.ChunkID] {
				continue
			}
			seen[hit.ChunkID] = true
			c, ok, err := r.resolve(ctx, hit, byID)
			if err != nil {
				return nil, err
			}
			if ok {
				contexts = append(contexts, c)
			}
		}

		if len(contexts) >= r.topK || len(hits) < k || k >= r.index.Len() {
			logger.Debug("retrieve: %d hits at k=%d, %d in active versions", len(hits), k, len(contexts))
			break
		}
	}

	sort.SliceStable(contexts, func(i, j int) bool {
		return contexts[i].Score > contexts[j].Score
	})
	if len(contexts) > r.topK {
		contexts = contexts[:r.topK]
	}
	return contexts, nil
}

// activeDocuments indexes every document by ID.
func (r *Retriever) activeDocuments(ctx context.Context) (map[int64]domain.Document, error) {
	docs, err := r.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	byID := make(map[int64]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return byID, nil
}

// resolve maps a hit to its chunk and reports whether the chunk belongs to
// its document's active version.
func (r *Retriever) resolve(
	ctx context.Context, hit driven.VectorHit, byID map[int64]domain.Document,
) (domain.RetrievedContext, bool, error) {
	chunk, err := r.store.GetChunk(ctx, hit.ChunkID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RetrievedContext{}, false, nil
	}
	if err != nil {
		return domain.RetrievedContext{}, false, fmt.Errorf("resolve chunk %d: %w", hit.ChunkID, err)
	}
	doc, ok := byID[chunk.DocumentID]
	if !ok || chunk.Version != doc.ActiveVersion {
		return domain.RetrievedContext{}, false, nil
	}
	return domain.RetrievedContext{
		ChunkID:    chunk.ID,
		DocumentID: doc.ID,
		SourcePath: doc.Path,
		Version:    chunk.Version,
		Text:       chunk.Text,
		Score:      hit.Score,
	}, true, nil
}

// Gate admits the contexts confident enough to ground an answer.
// Candidates are sorted by descending score. If none remain or the best
// score is below MinRelevance nothing is admitted. Otherwise every context
// scoring at least max(MinRelevance, best-ScoreWindow) is admitted, up to
// MaxContexts. The input slice is not modified.
func Gate(candidates []domain.RetrievedContext, settings domain.RetrievalSettings) []domain.RetrievedContext {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]domain.RetrievedContext, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	best := sorted[0].Score
	if best < settings.MinRelevance {
		logger.Debug("gate: best score %.3f below floor %.3f", best, settings.MinRelevance)
		return nil
	}

	threshold := max(settings.MinRelevance, best-settings.ScoreWindow)
	admitted := make([]domain.RetrievedContext, 0, min(len(sorted), settings.MaxContexts))
	for _, c := range sorted {
		if c.Score < threshold || len(admitted) == settings.MaxContexts {
			break
		}
		admitted = append(admitted, c)
	}
	logger.Debug("gate: best %.3f threshold %.3f admitted %d of %d", best, threshold, len(admitted), len(sorted))
	return admitted
}
