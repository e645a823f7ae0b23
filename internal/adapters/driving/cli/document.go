package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

var documentJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List ingested documents",
	Long:  `Shows every ingested document with its active and latest version.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var versionsCmd = &cobra.Command{
	Use:   "versions [path]",
	Short: "List stored versions of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [path] [version]",
	Short: "Serve an earlier version of a document",
	Long: `Sets the version retrieval serves for a document. Any stored version
can be selected, so rolling forward again works the same way. The next ingest
that sees the document change creates a new version on top of the latest.`,
	Args: cobra.ExactArgs(2),
	RunE: runRollback,
}

var diffCmd = &cobra.Command{
	Use:   "diff [path] [from] [to]",
	Short: "Compare two versions of a document",
	Long:  `Compares two stored versions chunk by chunk and prints a unified diff of the chunks that differ.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runDiff,
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Read or replace corpus files",
}

var contentGetCmd = &cobra.Command{
	Use:   "get [path]",
	Short: "Print the current content of a corpus file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentGet,
}

var contentPutCmd = &cobra.Command{
	Use:   "put [path]",
	Short: "Replace the content of a corpus file",
	Long: `Writes new content for a corpus file from --file or standard input.
The change is picked up by the next ingest.`,
	Args: cobra.ExactArgs(1),
	RunE: runContentPut,
}

// contentFile is a flag for the put command.
var contentFile string

func init() {
	for _, c := range []*cobra.Command{statusCmd, versionsCmd, rollbackCmd, diffCmd} {
		c.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	}
	contentPutCmd.Flags().StringVarP(&contentFile, "file", "f", "", "read content from this file instead of stdin")

	contentCmd.AddCommand(contentGetCmd)
	contentCmd.AddCommand(contentPutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(contentCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	report, err := documentService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, report)
	}

	if len(report.Documents) == 0 {
		cmd.Println("No documents ingested. Run 'ragvault ingest' first.")
		return nil
	}

	for i := range report.Documents {
		d := &report.Documents[i]
		cmd.Printf("  %s\n", d.Path)
		cmd.Printf("    Version: %d of %d\n", d.ActiveVersion, d.MaxVersion)
		cmd.Printf("    Chunks:  %d\n", d.ActiveChunks)
		if d.Fingerprint != "" {
			cmd.Printf("    Hash:    %s\n", d.Fingerprint)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d documents, %d chunks across all versions\n", len(report.Documents), report.TotalChunks)
	return nil
}

func runVersions(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	info, err := documentService.Versions(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, info)
	}

	cmd.Printf("Versions of %s:\n", info.Path)
	for _, v := range info.Versions {
		marker := " "
		if v == info.ActiveVersion {
			marker = "*"
		}
		cmd.Printf("  %s %d\n", marker, v)
	}
	return nil
}

func runRollback(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	target, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: version must be a number, got %q", domain.ErrInvalidInput, args[1])
	}

	doc, err := documentService.Rollback(cmd.Context(), args[0], target)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, map[string]any{
			"path":           doc.Path,
			"active_version": doc.ActiveVersion,
			"max_version":    doc.MaxVersion,
		})
	}

	cmd.Printf("%s now serves version %d of %d.\n", doc.Path, doc.ActiveVersion, doc.MaxVersion)
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	from, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: from version must be a number, got %q", domain.ErrInvalidInput, args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: to version must be a number, got %q", domain.ErrInvalidInput, args[2])
	}

	report, err := documentService.Diff(cmd.Context(), args[0], from, to)
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, report)
	}

	s := report.Summary
	cmd.Printf("%s v%d -> v%d: %d added, %d changed, %d removed, %d unchanged\n",
		report.Path, report.FromVersion, report.ToVersion, s.Added, s.Changed, s.Removed, s.Unchanged)
	if report.Combined != "" {
		cmd.Println()
		cmd.Print(renderDiff(report.Combined, isTerminal(cmd.OutOrStdout())))
	}
	return nil
}

func runContentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.ReadContent(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	cmd.Print(content)
	if !strings.HasSuffix(content, "\n") {
		cmd.Println()
	}
	return nil
}

func runContentPut(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := readContentInput(cmd)
	if err != nil {
		return err
	}

	if err := documentService.WriteContent(cmd.Context(), args[0], content); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}

	cmd.Printf("Wrote %d bytes to %s. Run 'ragvault ingest' to index the change.\n", len(content), args[0])
	return nil
}

// readContentInput reads from --file when set, otherwise from stdin.
// An interactive stdin is refused so the command never waits on a terminal.
func readContentInput(cmd *cobra.Command) (string, error) {
	if contentFile != "" {
		data, err := os.ReadFile(contentFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", contentFile, err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", errors.New("no content: pipe it on stdin or pass --file")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// isTerminal reports whether the stream is an interactive terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
