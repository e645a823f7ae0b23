package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	documentsURI = "ragvault://documents"
	versionsURI  = "ragvault://versions"

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Every ingested document with its active and newest version",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	// {+path} lets the variable span slashes, so nested paths resolve.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{+path}",
		Name:        "document-content",
		Description: "The document as it is now on disk",
		MIMEType:    mimeText,
	}, s.handleDocumentContentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: versionsURI + "/{+path}",
		Name:        "document-versions",
		Description: "Stored versions of a document and which one is served",
		MIMEType:    mimeJSON,
	}, s.handleVersionsResource)
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	report, err := s.ports.Document.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResource(req.Params.URI, report)
}

func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	path := pathFromURI(req.Params.URI, documentsURI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Document.ReadContent(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: mimeText, Text: content}},
	}, nil
}

func (s *Server) handleVersionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	path := pathFromURI(req.Params.URI, versionsURI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, err := s.ports.Document.Versions(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("versions of %s: %w", path, err)
	}
	return jsonResource(req.Params.URI, info)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeJSON, Text: string(data)}},
	}, nil
}

// pathFromURI returns the unescaped document path after base + "/", or ""
// when uri is not under base.
func pathFromURI(uri, base string) string {
	rest, ok := strings.CutPrefix(uri, base+"/")
	if !ok {
		return ""
	}
	path, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return path
}
