package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scicheckagent/scicheck/internal/export"
)

var (
	exportOut    string
	exportClaims []int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <analysis-id>",
	Short: "Export an analysis as a Markdown document",
	Long: `Export renders everything generated for an analysis so far: claims, AI
verdicts, external verification results, and research reports.

Example:
  scicheck export 2f4c9f7e-... -o report.md
  scicheck export 2f4c9f7e-... --claims 1,3 > report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	exportCmd.Flags().IntSliceVar(&exportClaims, "claims", nil, "claim numbers to export (default: all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	p, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	w := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	ordinals := make([]int, 0, len(exportClaims))
	for _, n := range exportClaims {
		if n < 1 {
			return fmt.Errorf("claim numbers must be positive, got %d", n)
		}
		ordinals = append(ordinals, n-1)
	}

	if err := p.ExportTo(ctx, args[0], export.NewMarkdownExporter(), w, ordinals...); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", exportOut)
	}
	return nil
}
