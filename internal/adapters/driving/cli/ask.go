package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// defaultGoldenFile is the evaluation set read when --golden is not given.
const defaultGoldenFile = "eval_golden.json"

var (
	askJSON    bool
	evalJSON   bool
	goldenFile string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the chunks most similar to the question, keeps only those close
to the best match, and answers from them with citations. When nothing clears
the relevance floor the answer says so instead of guessing.

Without a configured answer provider, or when it fails, a local extractive
answer is returned and the reason is shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score retrieval against a golden question set",
	Long: `Runs every question in the golden set and checks that at least one of its
must_cite sources was retrieved. The set is a YAML or JSON list of
{id, question, must_cite} entries.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the report as JSON")
	evalCmd.Flags().StringVarP(&goldenFile, "golden", "g", defaultGoldenFile, "golden question set (YAML or JSON)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(evalCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	answer, err := answerService.Ask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.SourcePath, c.Score)
			cmd.Printf("      %s\n", c.Snippet)
		}
	}

	meta := answer.Meta
	if meta.IsFallback() && meta.Reason != domain.FallbackNone {
		cmd.Println()
		cmd.Printf("Answered locally: %s\n", meta.Reason)
		if meta.Error != "" {
			cmd.Printf("  Provider error: %s\n", meta.Error)
		}
	}
	return nil
}

func runEval(cmd *cobra.Command, _ []string) error {
	if evalService == nil {
		return errors.New("eval service not configured")
	}

	cases, err := loadGolden(goldenFile)
	if err != nil {
		return err
	}

	report, err := evalService.Run(cmd.Context(), cases)
	if err != nil {
		return fmt.Errorf("eval failed: %w", err)
	}

	if evalJSON {
		return printJSON(cmd, report)
	}

	for _, r := range report.Results {
		mark := "FAIL"
		if r.Pass {
			mark = "PASS"
		}
		cmd.Printf("  %s %s: %s\n", mark, r.ID, r.Question)
		if !r.Pass {
			cmd.Printf("       wanted %s, got %s\n",
				strings.Join(r.MustCite, ", "), strings.Join(r.RetrievedSources, ", "))
		}
	}
	cmd.Println()
	cmd.Printf("Passed %d of %d (%.3f)\n", report.Passed, report.Total, report.PassRate)
	return nil
}

// loadGolden reads a golden set. JSON parses as YAML, so one decoder
// serves both formats.
func loadGolden(path string) ([]domain.EvalCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden set: %w", err)
	}

	var cases []domain.EvalCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("%w: golden set %s: %w", domain.ErrInvalidInput, path, err)
	}
	for i, c := range cases {
		if strings.TrimSpace(c.Question) == "" {
			return nil, fmt.Errorf("%w: golden case %d has no question", domain.ErrInvalidInput, i+1)
		}
		if c.ID == "" {
			cases[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
	return cases, nil
}
