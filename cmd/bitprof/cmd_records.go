package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"bitprof/internal/store"
)

var recordsLimit int

// recordsCmd lists persisted model records.
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List persisted analysis records",
	RunE:  runRecords,
}

// statsCmd summarizes the store.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record store statistics",
	RunE:  runStats,
}

func init() {
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 20, "maximum records to list (0 = all)")
	recordsCmd.AddCommand(statsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	records := newStoreFromConfig().Load()
	if len(records) == 0 {
		fmt.Println("No records.")
		return nil
	}

	shown := len(records)
	if recordsLimit > 0 && shown > recordsLimit {
		shown = recordsLimit
	}
	for _, rec := range records[:shown] {
		merged := ""
		if rec.MergedCount > 1 {
			merged = fmt.Sprintf(" (merged from %d)", rec.MergedCount)
		}
		fmt.Printf("%s  %s  %s%s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"), rec.ID, rec.Summary, merged)
	}
	if shown < len(records) {
		fmt.Printf("... and %d more\n", len(records)-shown)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	fmt.Print(formatStats(newStoreFromConfig().GetStats()))
	return nil
}

// formatStats renders the store statistics with deterministic ordering.
func formatStats(stats store.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store:   %s\n", stats.CanonicalPath)
	fmt.Fprintf(&b, "Records: %d\n", stats.Records)
	if stats.Records == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "Newest:  %s\n", stats.Newest.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Oldest:  %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
	if stats.MergedTotal > 0 {
		fmt.Fprintf(&b, "Merged:  %d source records folded\n", stats.MergedTotal)
	}
	b.WriteString("By type:\n")
	types := make([]string, 0, len(stats.ByType))
	for patternType := range stats.ByType {
		types = append(types, patternType)
	}
	sort.Strings(types)
	for _, patternType := range types {
		fmt.Fprintf(&b, "  %-12s %d\n", patternType, stats.ByType[patternType])
	}
	return b.String()
}
