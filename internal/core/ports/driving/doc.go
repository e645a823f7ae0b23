// Package driving holds the service interfaces the CLI and MCP server call.
// internal/core/services implements them.
package driving
