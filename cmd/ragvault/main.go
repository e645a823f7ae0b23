// Command ragvault answers questions from a versioned local document corpus.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/corpus/filesystem"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragvault/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
	"github.com/custodia-labs/ragvault/internal/core/services"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
	}

	// Startup logs precede flag parsing.
	logger.SetVerbose(slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose"))
	cli.SetVersion(version)

	cleanup, err := wire()
	defer cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// wire builds every service and hands them to the CLI. The returned cleanup
// releases whatever was opened, even on error.
func wire() (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	configDir, err := file.DefaultDir()
	if err != nil {
		return cleanup, err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return cleanup, fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		// Keep the settings commands usable so the bad value can be fixed.
		fmt.Fprintf(os.Stderr, "Warning: %v\nRun 'ragvault settings set <key> <value>' to fix it.\n", err)
		cli.SetServices(cli.Services{Settings: settingsService})
		return cleanup, nil
	}

	aiResult, err := ai.Initialise(settings)
	if err != nil {
		if errors.Is(err, domain.ErrStorageInconsistency) {
			return cleanup, fmt.Errorf("refusing to start: %w", err)
		}
		return cleanup, fmt.Errorf("initialising AI services: %w", err)
	}
	closers = append(closers, aiResult.Close)
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	store, err := sqlite.NewStore(settings.Paths.DataDir)
	if err != nil {
		return cleanup, fmt.Errorf("opening store: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })

	corpus, err := filesystem.New(settings.Paths.DocsDir)
	if err != nil {
		return cleanup, err
	}
	closers = append(closers, func() { _ = corpus.Close() })

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return cleanup, err
	}

	locks := services.NewPathLocks()
	ingestService := services.NewIngestService(
		store, aiResult.VectorIndex, aiResult.EmbeddingService, corpus, settings.Chunking, locks)
	documentService := services.NewDocumentService(store, corpus, locks)
	retriever := services.NewRetriever(
		store, aiResult.VectorIndex, aiResult.EmbeddingService, settings.Retrieval.TopK)
	answerService := services.NewAnswerService(retriever, aiResult.LLMService, prompts, settings.Retrieval)

	logger.Debug("data: %s, corpus: %s", store.Path(), corpus.Root())

	cli.SetServices(cli.Services{
		Ingest:   ingestService,
		Document: documentService,
		Answer:   answerService,
		Eval:     services.NewEvalService(retriever, answerService),
		Settings: settingsService,
		Watcher: func(opts domain.IngestOptions, onPass func(*domain.IngestSummary, error)) driving.WatchService {
			return services.NewWatcher(ingestService, corpus, services.DefaultDebounce).
				WithOptions(opts).
				OnPass(onPass)
		},
	})
	return cleanup, nil
}
