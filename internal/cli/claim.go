package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scicheckagent/scicheck/internal/verdict"
)

var claimTimeout time.Duration

// claimCmd represents the claim command
var claimCmd = &cobra.Command{
	Use:   "claim <analysis-id> <n>",
	Short: "Show a claim's AI verdict, generating it on first access",
	Long: `Claim displays the verdict for claim number n of an analysis. The first
access generates the verdict with the configured model; later accesses
replay it from the cache, including across analyses that contain the
same claim text.

Example:
  scicheck claim 2f4c9f7e-... 1`,
	Args: cobra.ExactArgs(2),
	RunE: runClaim,
}

func init() {
	rootCmd.AddCommand(claimCmd)
	claimCmd.Flags().DurationVar(&claimTimeout, "timeout", 5*time.Minute, "verdict generation timeout")
}

func runClaim(cmd *cobra.Command, args []string) error {
	ordinal, err := claimNumber(args[1])
	if err != nil {
		return err
	}

	p, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
	defer cancel()

	detail, err := p.Detail(ctx, args[0], ordinal)
	if err != nil {
		return err
	}

	fmt.Printf("Claim %d: %s\n\n", ordinal+1, detail.Claim.Text)
	mv := detail.ModelVerdict
	fmt.Printf("Verdict: %s\n", verdict.FormatVerdict(mv.Verdict))
	fmt.Printf("Justification: %s\n", mv.Justification)
	if len(mv.Sources) > 0 {
		fmt.Printf("Sources: %s\n", strings.Join(mv.Sources, ", "))
	}
	if len(mv.Keywords) > 0 {
		fmt.Printf("Keywords: %s\n", strings.Join(mv.Keywords, ", "))
	}
	if len(mv.Questions) > 0 {
		fmt.Println("\nResearch questions:")
		for i, q := range mv.Questions {
			fmt.Printf("  %d. %s\n", i+1, q)
		}
		fmt.Printf("\nNext: scicheck report %s %d <q>\n", args[0], ordinal+1)
	}
	if detail.ExternalVerdict != nil {
		fmt.Printf("\nExternal verification:\n%s\n", detail.ExternalVerdict.Verdict)
	}
	return nil
}

// claimNumber parses a 1-based claim number into a 0-based ordinal.
func claimNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("claim number must be a positive integer, got %q", arg)
	}
	return n - 1, nil
}
