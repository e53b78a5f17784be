package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scicheckagent/scicheck/internal/verdict"
)

var (
	verifyWorkers int
	verifyTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <analysis-id> [n]",
	Short: "Verify claims: all AI verdicts at once, or one claim externally",
	Long: `Without a claim number, verify generates AI verdicts for every claim of
the analysis in parallel.

With a claim number, verify checks that claim against scholarly databases
(Semantic Scholar, Crossref, CORE, PubMed) and synthesizes an evidence-
grounded verdict from the retrieved papers.

Example:
  scicheck verify 2f4c9f7e-...
  scicheck verify 2f4c9f7e-... 1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 3, "parallel verdict generations")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 15*time.Minute, "overall verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	p, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	if len(args) == 2 {
		ordinal, err := claimNumber(args[1])
		if err != nil {
			return err
		}
		ev, err := p.VerifyExternal(ctx, args[0], ordinal)
		if err != nil {
			return err
		}

		fmt.Printf("External verification for claim %d:\n\n%s\n", ordinal+1, ev.Verdict)
		if len(ev.Sources) > 0 {
			fmt.Printf("\nRetrieved papers (%d):\n", len(ev.Sources))
			for _, src := range ev.Sources {
				fmt.Printf("  - %s", src.Title)
				if src.Year > 0 {
					fmt.Printf(" (%d)", src.Year)
				}
				if src.URL != "" {
					fmt.Printf("\n    %s", src.URL)
				}
				fmt.Println()
			}
		}
		return nil
	}

	results, err := p.VerifyAll(ctx, args[0], verifyWorkers)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%3d. ERROR: %v\n", r.Ordinal+1, r.Err)
			continue
		}
		fmt.Printf("%3d. %s\n", r.Ordinal+1, verdict.FormatVerdict(r.Verdict.Verdict))
	}
	return nil
}
