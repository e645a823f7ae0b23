package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragvault/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose ragvault to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ask, ingest, diff and rollback as MCP tools",
	Long: `Serve the Model Context Protocol over stdio, or over streamable HTTP
when --port is set. Documents are also readable as ragvault://documents/{path}.

To register with a desktop client, point it at:

  {"command": "ragvault", "args": ["mcp", "serve"]}`,
	Example: `  ragvault mcp serve
  ragvault mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Answer:   answerService,
		Document: documentService,
		Ingest:   ingestService,
	}, version)
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		// stdout belongs to the protocol from here on.
		return server.Run(cmd.Context())
	}
	addr := net.JoinHostPort("", strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
