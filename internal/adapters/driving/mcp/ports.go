package mcp

import "github.com/custodia-labs/ragvault/internal/core/ports/driving"

// Ports are the services the MCP tools call. Ingest may be nil, in which
// case the ingest tool reports ErrIngestDisabled.
type Ports struct {
	Answer   driving.AnswerService
	Document driving.DocumentService
	Ingest   driving.IngestService
}

// Validate checks the required services are present.
func (p *Ports) Validate() error {
	switch {
	case p == nil || p.Answer == nil:
		return ErrMissingAnswerService
	case p.Document == nil:
		return ErrMissingDocumentService
	}
	return nil
}
