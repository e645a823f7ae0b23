package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driving.WatchService = (*Watcher)(nil)

// DefaultDebounce is the quiet period after the last change before a pass.
const DefaultDebounce = 500 * time.Millisecond

// Watcher runs an ingestion pass after each burst of corpus changes.
// Passes never overlap.
type Watcher struct {
	ingest   driving.IngestService
	source   driven.CorpusWatcher
	debounce time.Duration
	opts     domain.IngestOptions
	onPass   func(*domain.IngestSummary, error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(ingest driving.IngestService, source driven.CorpusWatcher, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		ingest:   ingest,
		source:   source,
		debounce: debounce,
	}
}

// WithOptions sets the ingest options used for every pass.
func (w *Watcher) WithOptions(opts domain.IngestOptions) *Watcher {
	w.opts = opts
	return w
}

// OnPass registers a callback invoked after every pass.
func (w *Watcher) OnPass(fn func(*domain.IngestSummary, error)) *Watcher {
	w.onPass = fn
	return w
}

// Start runs an initial pass and then one pass per burst of changes.
// It blocks until ctx is done, Stop is called or the change stream ends.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	stopCh, done := w.stopCh, w.done
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := w.source.Watch(ctx)
	if err != nil {
		return err
	}

	w.runPass(ctx, "startup")
	return w.run(ctx, stopCh, changes)
}

// Stop ends a running Start and waits for it to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	done := w.done
	w.mu.Unlock()

	<-done
	return nil
}

func (w *Watcher) run(ctx context.Context, stopCh <-chan struct{}, changes <-chan string) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			logger.Debug("watch: %d paths changed", len(pending))
			clear(pending)
			w.runPass(ctx, "change")
		}
	}
}

func (w *Watcher) runPass(ctx context.Context, trigger string) {
	summary, err := w.ingest.Ingest(ctx, w.opts)
	if err != nil {
		logger.Error("watch: %s pass failed: %v", trigger, err)
	}
	if w.onPass != nil {
		w.onPass(summary, err)
	}
}
