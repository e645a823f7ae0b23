package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// seedVersions stores one chunk set per version for path.
func seedVersions(t *testing.T, path string, versions ...[]string) *memory.VersionStore {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := memory.NewVersionStore()

	doc, err := store.UpsertDocument(ctx, path, "fp", len(versions), len(versions), ts)
	require.NoError(t, err)
	for i, texts := range versions {
		chunks := make([]domain.NewChunk, len(texts))
		for ord, text := range texts {
			chunks[ord] = domain.NewChunk{Ordinal: ord, Fingerprint: domain.FingerprintString(text), Text: text}
		}
		_, err := store.InsertChunks(ctx, doc.ID, i+1, chunks, ts)
		require.NoError(t, err)
	}
	return store
}

func TestDiffVersions_Classifies(t *testing.T) {
	store := seedVersions(t, "guide.md",
		[]string{"same", "old line\nkept", "gone"},
		[]string{"same", "new line\nkept"},
	)

	report, err := DiffVersions(context.Background(), store, "guide.md", 1, 2)
	require.NoError(t, err)

	assert.Equal(t, domain.DiffSummary{Changed: 1, Removed: 1, Unchanged: 1, Total: 3}, report.Summary)
	require.Len(t, report.Chunks, 3)
	assert.Equal(t, domain.DiffUnchanged, report.Chunks[0].Status)
	assert.Empty(t, report.Chunks[0].Diff)
	assert.Equal(t, domain.DiffChanged, report.Chunks[1].Status)
	assert.Equal(t, domain.DiffRemoved, report.Chunks[2].Status)
	assert.Equal(t, 4, report.Chunks[2].FromLen)
	assert.Equal(t, 0, report.Chunks[2].ToLen)

	assert.Equal(t,
		"--- guide.md@v1:chunk_1\n+++ guide.md@v2:chunk_1\n@@ -1,2 +1,2 @@\n-old line\n+new line\n kept",
		report.Chunks[1].Diff)
	assert.Equal(t, report.Chunks[1].Diff+"\n\n"+report.Chunks[2].Diff, report.Combined)
}

func TestDiffVersions_Symmetric(t *testing.T) {
	store := seedVersions(t, "guide.md",
		[]string{"a", "b", "c"},
		[]string{"a", "B", "c", "d", "e"},
	)
	ctx := context.Background()

	forward, err := DiffVersions(ctx, store, "guide.md", 1, 2)
	require.NoError(t, err)
	backward, err := DiffVersions(ctx, store, "guide.md", 2, 1)
	require.NoError(t, err)

	assert.Equal(t, forward.Summary.Added, backward.Summary.Removed)
	assert.Equal(t, forward.Summary.Removed, backward.Summary.Added)
	assert.Equal(t, forward.Summary.Changed, backward.Summary.Changed)
	assert.Equal(t, forward.Summary.Unchanged, backward.Summary.Unchanged)
	assert.Equal(t, 5, forward.Summary.Total)
	assert.Equal(t, 2, forward.Summary.Added)
}

func TestDiffVersions_SameVersion(t *testing.T) {
	store := seedVersions(t, "guide.md", []string{"a", "b"})

	report, err := DiffVersions(context.Background(), store, "guide.md", 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Unchanged)
	assert.Empty(t, report.Combined)
}

func TestDiffVersions_UnknownPath(t *testing.T) {
	store := memory.NewVersionStore()

	_, err := DiffVersions(context.Background(), store, "missing.md", 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiffVersions_EmptyVersions(t *testing.T) {
	store := seedVersions(t, "guide.md", []string{}, []string{})

	report, err := DiffVersions(context.Background(), store, "guide.md", 1, 2)
	require.NoError(t, err)

	assert.NotNil(t, report.Chunks)
	assert.Zero(t, report.Summary.Total)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\r\nb\n"))
	assert.Equal(t, []string{"\n"}, splitLines("\n"))
}
