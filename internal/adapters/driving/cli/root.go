// Package cli implements the ragvault command line with cobra.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// version is set from the build through SetVersion.
var version = "dev"

// WatcherFactory builds a watch service that runs ingest passes with opts
// and reports each pass to onPass.
type WatcherFactory func(opts domain.IngestOptions, onPass func(*domain.IngestSummary, error)) driving.WatchService

// Services bundles the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Document driving.DocumentService
	Answer   driving.AnswerService
	Eval     driving.EvalService
	Settings driving.SettingsService
	Watcher  WatcherFactory
}

var (
	ingestService   driving.IngestService
	documentService driving.DocumentService
	answerService   driving.AnswerService
	evalService     driving.EvalService
	settingsService driving.SettingsService
	newWatcher      WatcherFactory
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ragvault",
	Short: "Versioned retrieval-augmented answers over local documents",
	Long: `ragvault ingests a directory of Markdown and text files into versioned
chunks, re-embeds only what changed, and answers questions from the chunks
it is confident about, with citations.

Every ingest that sees a document change records a new version. Versions can
be listed, diffed chunk by chunk, and rolled back.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices wires the services used by the commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	documentService = s.Document
	answerService = s.Answer
	evalService = s.Eval
	settingsService = s.Settings
	newWatcher = s.Watcher
}

// SetVersion sets the version reported by the version command and the MCP server.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Long-running commands stop when ctx is done.
// Command output goes to stdout so --json can be piped; errors stay on stderr.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}
