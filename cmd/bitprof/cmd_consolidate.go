package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// consolidateCmd folds record fragments into the canonical store.
var consolidateCmd = &cobra.Command{
	Use:   "consolidate [paths...]",
	Short: "Fold record fragments into the canonical store",
	Long: `Scans the canonical store and the configured fragment directories
(or the given paths), de-duplicates and merges near-duplicate records,
writes the result back atomically, and removes the stale fragments.`,
	RunE: runConsolidate,
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	res, err := newStoreFromConfig().Consolidate(args...)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d records, kept %d (%d merged away, %d invalid skipped)\n",
		res.Scanned, res.Kept, res.Merged, res.Skipped)
	if res.Removed > 0 {
		fmt.Printf("Removed %d stale fragment files\n", res.Removed)
	}
	fmt.Printf("Completed in %s\n", res.Duration.Round(time.Microsecond))
	return nil
}
