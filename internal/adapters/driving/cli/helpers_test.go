package cli

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockIngestService struct {
	summary *domain.IngestSummary
	err     error
	opts    domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestSummary, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &domain.IngestSummary{
		RunID:         "run-1",
		DocsScanned:   2,
		DocsChanged:   1,
		DocsUnchanged: 1,
		ChunksAdded:   3,
		EmbedCalls:    1,
		Elapsed:       42 * time.Millisecond,
	}, nil
}

type mockDocumentService struct {
	err     error
	content string
	written map[string]string
	args    []any
}

func (m *mockDocumentService) Status(_ context.Context) (*domain.StatusReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.StatusReport{
		Documents: []domain.DocumentStatus{
			{Path: "guide.md", Fingerprint: "0123456789ab", ActiveVersion: 1, MaxVersion: 2, ActiveChunks: 5},
		},
		TotalChunks: 10,
	}, nil
}

func (m *mockDocumentService) Versions(_ context.Context, path string) (*domain.VersionInfo, error) {
	m.args = []any{path}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.VersionInfo{Path: path, ActiveVersion: 1, MaxVersion: 2, Versions: []int{1, 2}}, nil
}

func (m *mockDocumentService) Rollback(_ context.Context, path string, version int) (*domain.Document, error) {
	m.args = []any{path, version}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{Path: path, ActiveVersion: version, MaxVersion: 3}, nil
}

func (m *mockDocumentService) Diff(_ context.Context, path string, from, to int) (*domain.DiffReport, error) {
	m.args = []any{path, from, to}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.DiffReport{
		Path:        path,
		FromVersion: from,
		ToVersion:   to,
		Summary:     domain.DiffSummary{Changed: 1, Unchanged: 4, Total: 5},
		Combined:    "--- v1\n+++ v2\n@@ -1 +1 @@\n-old line\n+new line\n",
	}, nil
}

func (m *mockDocumentService) ReadContent(_ context.Context, path string) (string, error) {
	m.args = []any{path}
	return m.content, m.err
}

func (m *mockDocumentService) WriteContent(_ context.Context, path, content string) error {
	if m.err != nil {
		return m.err
	}
	if m.written == nil {
		m.written = make(map[string]string)
	}
	m.written[path] = content
	return nil
}

type mockAnswerService struct {
	answer *domain.Answer
	err    error
	query  string
}

func (m *mockAnswerService) Ask(_ context.Context, query string) (*domain.Answer, error) {
	m.query = query
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{
		Text: "Refunds take thirty days.",
		Citations: []domain.Citation{
			{SourcePath: "refunds.md", ChunkID: 1, Score: 0.87, Snippet: "Refunds take thirty days."},
		},
		Meta: domain.AnswerMeta{Provider: domain.AnswerProviderRemote, Model: "gpt-4o-mini"},
	}, nil
}

type mockEvalService struct {
	cases []domain.EvalCase
}

func (m *mockEvalService) Run(_ context.Context, cases []domain.EvalCase) (*domain.EvalReport, error) {
	m.cases = cases
	report := &domain.EvalReport{Total: len(cases)}
	for _, c := range cases {
		pass := len(c.MustCite) == 0 || c.MustCite[0] == "fruit.md"
		if pass {
			report.Passed++
		}
		report.Results = append(report.Results, domain.EvalResult{
			ID:               c.ID,
			Question:         c.Question,
			MustCite:         c.MustCite,
			RetrievedSources: []string{"fruit.md"},
			Pass:             pass,
		})
	}
	if report.Total > 0 {
		report.PassRate = float64(report.Passed) / float64(report.Total)
	}
	return report, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	stored      map[string]string
	setErr      error
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		stored:   make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.stored[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := []string{"paths.docs_dir", "chunking.size", "llm.provider"}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) Validate() error { return m.validateErr }

type mockWatchService struct {
	onPass func(*domain.IngestSummary, error)
	err    error
}

func (m *mockWatchService) Start(_ context.Context) error {
	m.onPass(&domain.IngestSummary{RunID: "run-w", DocsScanned: 1, DocsChanged: 1}, nil)
	return m.err
}

func (m *mockWatchService) Stop() error { return nil }

// --- Test setup ---

type testServices struct {
	ingest   *mockIngestService
	document *mockDocumentService
	answer   *mockAnswerService
	eval     *mockEvalService
	settings *mockSettingsService
	watch    *mockWatchService
	watchOpt domain.IngestOptions
}

var mocks *testServices

// setupTestServices installs fresh mocks and resets flag state. The returned
// function restores the previous services.
func setupTestServices() func() {
	prev := Services{
		Ingest:   ingestService,
		Document: documentService,
		Answer:   answerService,
		Eval:     evalService,
		Settings: settingsService,
		Watcher:  newWatcher,
	}

	mocks = &testServices{
		ingest:   &mockIngestService{},
		document: &mockDocumentService{},
		answer:   &mockAnswerService{},
		eval:     &mockEvalService{},
		settings: newMockSettingsService(),
		watch:    &mockWatchService{},
	}
	SetServices(Services{
		Ingest:   mocks.ingest,
		Document: mocks.document,
		Answer:   mocks.answer,
		Eval:     mocks.eval,
		Settings: mocks.settings,
		Watcher: func(opts domain.IngestOptions, onPass func(*domain.IngestSummary, error)) driving.WatchService {
			mocks.watchOpt = opts
			mocks.watch.onPass = onPass
			return mocks.watch
		},
	})
	resetFlags()

	return func() {
		SetServices(prev)
		resetFlags()
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	ingestChunkChars = 0
	ingestChunkOverlap = 0
	ingestJSON = false
	documentJSON = false
	contentFile = ""
	askJSON = false
	evalJSON = false
	goldenFile = defaultGoldenFile
	mcpPort = 0
	versionShort = false
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
