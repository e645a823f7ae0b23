package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// mockCorpusWatcher implements driven.CorpusWatcher for testing.
type mockCorpusWatcher struct {
	changes  chan string
	watchErr error
}

func (m *mockCorpusWatcher) Watch(_ context.Context) (<-chan string, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	return m.changes, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	mu    sync.Mutex
	calls int
}

func (m *mockIngestService) Ingest(_ context.Context, _ domain.IngestOptions) (*domain.IngestSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return &domain.IngestSummary{DocsScanned: m.calls}, nil
}

func (m *mockIngestService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	source := &mockCorpusWatcher{changes: make(chan string)}
	ingest := &mockIngestService{}
	w := NewWatcher(ingest, source, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	require.Eventually(t, func() bool { return ingest.count() == 1 }, time.Second, 5*time.Millisecond,
		"startup pass")

	for _, p := range []string{"a.md", "b.md", "a.md"} {
		source.changes <- p
	}
	require.Eventually(t, func() bool { return ingest.count() == 2 }, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, ingest.count(), "one burst gives one pass")

	require.NoError(t, w.Stop())
	assert.NoError(t, <-done)
}

func TestWatcher_StopsWhenStreamCloses(t *testing.T) {
	source := &mockCorpusWatcher{changes: make(chan string)}
	var passes []*domain.IngestSummary
	w := NewWatcher(&mockIngestService{}, source, 10*time.Millisecond).
		OnPass(func(s *domain.IngestSummary, _ error) { passes = append(passes, s) })

	close(source.changes)

	assert.NoError(t, w.Start(context.Background()))
	require.Len(t, passes, 1)
	assert.Equal(t, 1, passes[0].DocsScanned)
}

func TestWatcher_ContextCancel(t *testing.T) {
	source := &mockCorpusWatcher{changes: make(chan string)}
	w := NewWatcher(&mockIngestService{}, source, 0)
	assert.Equal(t, DefaultDebounce, w.debounce)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_WatchError(t *testing.T) {
	ingest := &mockIngestService{}
	w := NewWatcher(ingest, &mockCorpusWatcher{watchErr: errors.New("root path error")}, 0)

	err := w.Start(context.Background())

	assert.ErrorContains(t, err, "root path error")
	assert.Zero(t, ingest.count())
}

func TestWatcher_StopWhenIdle(t *testing.T) {
	w := NewWatcher(&mockIngestService{}, &mockCorpusWatcher{}, 0)

	assert.NoError(t, w.Stop())
}
