package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/corpus/filesystem"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

const testDimensions = 1024

// testChunking gives 40-character windows with no overlap, so editing one
// window never touches its neighbours.
var testChunking = domain.ChunkSettings{Size: 40, Overlap: 0}

// --- Mock implementations ---

// countingEmbedder wraps the local embedder and records batch calls.
type countingEmbedder struct {
	*local.EmbeddingService

	mu          sync.Mutex
	batchCalls  int
	batchTexts  []string
	failBatches error
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{
		EmbeddingService: local.NewEmbeddingService(local.Config{Dimensions: testDimensions}),
	}
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.batchTexts = append(e.batchTexts, texts...)
	fail := e.failBatches
	e.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchCalls = 0
	e.batchTexts = nil
}

// unreadableCorpus fails Read for selected paths.
type unreadableCorpus struct {
	*filesystem.Corpus
	failing map[string]error
}

func (c *unreadableCorpus) Read(ctx context.Context, path string) (string, error) {
	if err, ok := c.failing[path]; ok {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return c.Corpus.Read(ctx, path)
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response *driven.ChatResponse
	err      error
	messages []driven.ChatMessage
	calls    int
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (*driven.ChatResponse, error) {
	m.calls++
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string             { return "mock-model" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "Answer only from context.",
		driven.PromptAnswerUser:   "Question: %s\n\nContext:\n%s",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found: " + name)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// --- Fixture ---

type fixture struct {
	store    *memory.VersionStore
	index    *flat.Index
	embedder *countingEmbedder
	corpus   *filesystem.Corpus
	locks    *PathLocks
	ingest   *IngestService
	docs     *DocumentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	index, err := flat.Open(t.TempDir(), testDimensions)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	corpus, err := filesystem.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = corpus.Close() })

	f := &fixture{
		store:    memory.NewVersionStore(),
		index:    index,
		embedder: newCountingEmbedder(),
		corpus:   corpus,
		locks:    NewPathLocks(),
	}
	f.ingest = NewIngestService(f.store, f.index, f.embedder, f.corpus, testChunking, f.locks)
	f.docs = NewDocumentService(f.store, f.corpus, f.locks)
	return f
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, f.corpus.Write(context.Background(), path, content))
}

func (f *fixture) runIngest(t *testing.T) *domain.IngestSummary {
	t.Helper()
	summary, err := f.ingest.Ingest(context.Background(), domain.IngestOptions{})
	require.NoError(t, err)
	return summary
}

func (f *fixture) retriever(topK int) *Retriever {
	return NewRetriever(f.store, f.index, f.embedder, topK)
}

// segment repeats word to exactly one test window.
func segment(word string) string {
	return strings.Repeat(word+" ", testChunking.Size)[:testChunking.Size]
}

// fiveSegments builds a document that splits into five windows.
func fiveSegments(words ...string) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(segment(w))
	}
	return b.String()
}
