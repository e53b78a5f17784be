package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scicheckagent/scicheck/internal/model"
)

var (
	analyzeMode    string
	analyzeURL     string
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Extract verifiable claims from text, a file, or an article URL",
	Long: `Analyze extracts a numbered list of explicit, testable claims and stores
them as a new analysis. Input comes from a file argument, stdin, or an
article URL.

Example:
  scicheck analyze article.txt
  cat article.txt | scicheck analyze --mode scientific
  scicheck analyze --url https://example.com/news/story --mode technology`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", string(model.ModeGeneral), "analysis mode (general, scientific, technology)")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "fetch and analyze an article URL instead of local text")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 3*time.Minute, "overall analyze timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	mode := model.Mode(analyzeMode)
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q (valid: %v)", analyzeMode, model.Modes())
	}

	p, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	var analysis *model.Analysis
	var claims []model.Claim
	switch {
	case analyzeURL != "":
		analysis, claims, err = p.AnalyzeURL(ctx, mode, analyzeURL)
	default:
		text, rerr := readInput(args)
		if rerr != nil {
			return rerr
		}
		analysis, claims, err = p.Analyze(ctx, mode, text)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Analysis: %s (mode: %s)\n\n", analysis.ID, analysis.Mode)
	if len(claims) == 0 {
		fmt.Println("No explicit claims found.")
		return nil
	}
	for _, c := range claims {
		fmt.Printf("%3d. %s\n", c.Ordinal+1, c.Text)
	}
	fmt.Printf("\nNext: scicheck claim %s <n>\n", analysis.ID)
	return nil
}

// readInput returns the text to analyze from the file argument or stdin.
func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
