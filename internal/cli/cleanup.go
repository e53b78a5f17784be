package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cache entries and compact storage",
	Long: `Cleanup sweeps the cache tables by age: media extractions after 30 days,
analyses after 7 days, and verdict/report caches after 90 days by
default. When enough rows were removed the database file is compacted.

Retention horizons are configurable in the retention section of the
config file.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	p, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := p.Cleanup(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d expired entries:\n", res.Total())
	fmt.Printf("  media:     %d\n", res.Media)
	fmt.Printf("  analyses:  %d\n", res.Analyses)
	fmt.Printf("  verdicts:  %d model, %d external\n", res.Model, res.External)
	fmt.Printf("  reports:   %d\n", res.Reports)
	if res.Vacuumed {
		fmt.Println("Storage compacted.")
	}
	return nil
}
