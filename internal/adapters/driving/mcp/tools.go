package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the indexed documents"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	ChunkChars   int `json:"chunk_chars,omitempty" jsonschema:"window size in characters (default from settings)"`
	ChunkOverlap int `json:"chunk_overlap_chars,omitempty" jsonschema:"overlap between windows in characters"`
}

// DiffInput is the input schema for the diff tool.
type DiffInput struct {
	Path        string `json:"path" jsonschema:"document path relative to the corpus root"`
	FromVersion int    `json:"from_version" jsonschema:"version to compare from"`
	ToVersion   int    `json:"to_version" jsonschema:"version to compare to"`
}

// RollbackInput is the input schema for the rollback tool.
type RollbackInput struct {
	Path    string `json:"path" jsonschema:"document path relative to the corpus root"`
	Version int    `json:"version" jsonschema:"version to serve for retrieval"`
}

// RollbackOutput is the output schema for the rollback tool.
type RollbackOutput struct {
	Path          string `json:"path"`
	ActiveVersion int    `json:"active_version"`
	MaxVersion    int    `json:"max_version"`
}

// VersionsInput is the input schema for the versions tool.
type VersionsInput struct {
	Path string `json:"path" jsonschema:"document path relative to the corpus root"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only confidently retrieved document chunks, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest the corpus, creating new versions for changed documents",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "diff",
		Description: "Compare two versions of a document chunk by chunk",
	}, s.handleDiff)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rollback",
		Description: "Serve an earlier (or later) stored version of a document",
	}, s.handleRollback)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "versions",
		Description: "List the stored versions of a document",
	}, s.handleVersions)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.Answer, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Query)
	if err != nil {
		return nil, domain.Answer{}, err
	}
	return nil, *answer, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestSummary, error) {
	if s.ports.Ingest == nil {
		return nil, domain.IngestSummary{}, ErrIngestDisabled
	}

	opts := domain.IngestOptions{
		Chunking: domain.ChunkSettings{Size: input.ChunkChars, Overlap: input.ChunkOverlap},
	}
	summary, err := s.ports.Ingest.Ingest(ctx, opts)
	if err != nil {
		return nil, domain.IngestSummary{}, err
	}
	return nil, *summary, nil
}

func (s *Server) handleDiff(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiffInput,
) (*mcp.CallToolResult, domain.DiffReport, error) {
	report, err := s.ports.Document.Diff(ctx, input.Path, input.FromVersion, input.ToVersion)
	if err != nil {
		return nil, domain.DiffReport{}, err
	}
	return nil, *report, nil
}

func (s *Server) handleRollback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RollbackInput,
) (*mcp.CallToolResult, RollbackOutput, error) {
	doc, err := s.ports.Document.Rollback(ctx, input.Path, input.Version)
	if err != nil {
		return nil, RollbackOutput{}, err
	}
	return nil, RollbackOutput{
		Path:          doc.Path,
		ActiveVersion: doc.ActiveVersion,
		MaxVersion:    doc.MaxVersion,
	}, nil
}

func (s *Server) handleVersions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VersionsInput,
) (*mcp.CallToolResult, domain.VersionInfo, error) {
	info, err := s.ports.Document.Versions(ctx, input.Path)
	if err != nil {
		return nil, domain.VersionInfo{}, err
	}
	return nil, *info, nil
}
