package mcp

import (
	"context"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
	query  string
}

func (m *mockAnswerService) Ask(_ context.Context, query string) (*domain.Answer, error) {
	m.query = query
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	summary *domain.IngestSummary
	err     error
	opts    domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestSummary, error) {
	m.opts = opts
	return m.summary, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	status   *domain.StatusReport
	versions *domain.VersionInfo
	document *domain.Document
	diff     *domain.DiffReport
	content  string
	err      error

	path string
}

func (m *mockDocumentService) Status(_ context.Context) (*domain.StatusReport, error) {
	return m.status, m.err
}

func (m *mockDocumentService) Versions(_ context.Context, path string) (*domain.VersionInfo, error) {
	m.path = path
	return m.versions, m.err
}

func (m *mockDocumentService) Rollback(_ context.Context, path string, _ int) (*domain.Document, error) {
	m.path = path
	return m.document, m.err
}

func (m *mockDocumentService) Diff(_ context.Context, path string, _, _ int) (*domain.DiffReport, error) {
	m.path = path
	return m.diff, m.err
}

func (m *mockDocumentService) ReadContent(_ context.Context, path string) (string, error) {
	m.path = path
	return m.content, m.err
}

func (m *mockDocumentService) WriteContent(_ context.Context, path, _ string) error {
	m.path = path
	return m.err
}
