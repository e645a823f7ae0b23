// Package mcp serves ragvault over the Model Context Protocol: grounded
// answers, ingestion, version history, diffs and rollback as tools, and
// document listings, content and version lists as resources.
package mcp

import "errors"

var (
	ErrMissingAnswerService   = errors.New("mcp: answer service is required")
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrIngestDisabled is returned by the ingest tool when Ports.Ingest is nil.
	ErrIngestDisabled = errors.New("mcp: ingestion is not available")
)
