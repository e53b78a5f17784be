package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/pipeline"
)

var (
	reportQuestion string
	reportTimeout  time.Duration
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <analysis-id> [n] [q]",
	Short: "Stream a research report for a claim's question",
	Long: `Report writes an evidence-based research report to stdout as it is
generated. The question is one of the claim's generated research
questions selected by number, or free text via --question. Completed
reports are cached and replayed instantly.

With only an analysis id, report lists the reports generated so far.

Example:
  scicheck report 2f4c9f7e-...
  scicheck report 2f4c9f7e-... 1 2
  scicheck report 2f4c9f7e-... 1 --question "How was this measured?"`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportQuestion, "question", "", "free-text research question")
	reportCmd.Flags().DurationVar(&reportTimeout, "timeout", 10*time.Minute, "report generation timeout")
}

func runReport(cmd *cobra.Command, args []string) error {
	p, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if len(args) == 1 {
		return listReports(ctx, p, args[0])
	}

	ordinal, err := claimNumber(args[1])
	if err != nil {
		return err
	}

	var stream <-chan llm.Delta
	switch {
	case reportQuestion != "":
		stream, err = p.StreamReportFor(ctx, args[0], ordinal, reportQuestion)
	case len(args) == 3:
		q, qerr := strconv.Atoi(args[2])
		if qerr != nil || q < 1 {
			return fmt.Errorf("question number must be a positive integer, got %q", args[2])
		}
		stream, err = p.StreamReport(ctx, args[0], ordinal, q-1)
	default:
		stream, err = p.StreamReport(ctx, args[0], ordinal, 0)
	}
	if err != nil {
		return err
	}

	for delta := range stream {
		if delta.Err != nil {
			fmt.Fprintln(os.Stderr)
			return delta.Err
		}
		fmt.Print(delta.Content)
	}
	fmt.Println()
	return nil
}

func listReports(ctx context.Context, p *pipeline.Pipeline, analysisID string) error {
	available, err := p.AvailableReports(ctx, analysisID)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		fmt.Println("No reports generated yet.")
		return nil
	}

	ordinals := make([]int, 0, len(available))
	for o := range available {
		ordinals = append(ordinals, o)
	}
	sort.Ints(ordinals)
	for _, o := range ordinals {
		fmt.Printf("Claim %d:\n", o+1)
		for _, r := range available[o] {
			fmt.Printf("  - %s (generated %s)\n", r.Question, r.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
