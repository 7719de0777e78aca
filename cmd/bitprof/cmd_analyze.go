package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"bitprof/internal/analyzer"
	"bitprof/internal/classify"
	"bitprof/internal/store"
)

var (
	analyzeSave    bool
	analyzeLength  int
	analyzeVerbose bool
)

// analyzeCmd runs one analysis over a raw input string.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [sequence]",
	Short: "Analyze a binary sequence",
	Long: `Analyzes a raw input string. Characters other than '0' and '1' are
stripped before analysis; input with no binary symbols at all is rejected.

Example:
  bitprof analyze 110011001100
  bitprof analyze --save --predict-length 16 "1010 1010"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the result to the record store")
	analyzeCmd.Flags().IntVar(&analyzeLength, "predict-length", 0, "prediction horizon (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeVerbose, "full", false, "print window densities and pattern counts")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	st := newStoreFromConfig()

	length := cfg.Predict.Length
	if analyzeLength > 0 {
		length = analyzeLength
	}
	a := analyzer.New(st, logger, analyzer.WithPredictLength(length))

	var result *analyzer.Result
	var rec store.ModelRecord
	var err error
	if analyzeSave {
		result, rec, err = a.AnalyzeAndSave(args[0])
	} else {
		result, err = a.Analyze(args[0])
	}
	if err != nil {
		return err
	}

	printResult(result)
	if analyzeSave && rec.ID != "" {
		fmt.Printf("\nSaved record %s\n", rec.ID)
	}
	return nil
}

func printResult(r *analyzer.Result) {
	fmt.Printf("Sequence:        %s (%d symbols)\n", r.Sequence.Sample(48), r.Sequence.Len())
	if r.Degraded {
		fmt.Println("Analysis degraded; only sequence length and sample are reliable.")
		return
	}

	m := r.Metrics
	c := r.Classification
	fmt.Printf("Kind:            %s\n", c.Kind)
	if c.Kind == classify.KindNormal {
		fmt.Printf("Complexity:      %s (level %.4f)\n", c.ComplexityType, c.ComplexityLevel)
	}
	fmt.Printf("Entropy:         %.4f bits\n", m.Entropy)
	fmt.Printf("Longest run:     %d\n", m.LongestRun)
	fmt.Printf("Burstiness:      %.4f\n", m.Burstiness)
	fmt.Printf("Alternation:     %.4f\n", m.AlternationRatio)
	fmt.Printf("Run ratio:       %.4f\n", m.RunRatio)
	fmt.Printf("Autocorr (lag1): %.4f\n", m.AutocorrelationLag1)
	fmt.Printf("Periodicity:     period %d, score %.4f\n", m.Periodicity.BestPeriod, m.Periodicity.MatchScore)
	fmt.Printf("Symmetry:        %.4f\n", m.Symmetry)
	fmt.Printf("Prediction:      %s\n", r.Prediction)
	// Confidence is stored unclamped; clamp only here, at the display edge.
	fmt.Printf("Confidence:      %.4f\n", classify.ClampConfidence(r.Confidence))

	if !analyzeVerbose {
		return
	}

	fmt.Println("\nWindow densities:")
	sizes := make([]int, 0, len(m.WindowDensities))
	for size := range m.WindowDensities {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	for _, size := range sizes {
		fmt.Printf("  %2d: %v\n", size, m.WindowDensities[size])
	}

	fmt.Println("\nPattern counts:")
	patterns := make([]string, 0, len(m.PatternCounts))
	for p := range m.PatternCounts {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	for _, p := range patterns {
		fmt.Printf("  %-4s %d\n", p, m.PatternCounts[p])
	}
}

// newStoreFromConfig builds the record store the way every command shares.
func newStoreFromConfig() *store.RecordStore {
	return store.New(cfg.Store.Path,
		store.WithCapacity(cfg.Store.Capacity),
		store.WithFragmentDirs(cfg.Store.FragmentDirs...),
		store.WithLogger(logger))
}
