// bitprof analyzes binary symbol sequences: entropy, run and burst
// statistics, periodicity, a coarse pattern classification, and a naive
// next-symbol prediction. Results are persisted to a bounded, deduplicated
// record store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bitprof/internal/config"
	"bitprof/internal/logging"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Shared state built in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "bitprof",
	Short: "bitprof - binary sequence profiler",
	Long: `bitprof ingests a sequence over the binary alphabet ("0"/"1") and
produces a statistical profile: entropy, run/burst statistics,
autocorrelation, periodicity, sliding-window density, a coarse pattern
classification, and a heuristic next-symbol prediction.

Each analysis can be persisted to a bounded, deduplicated record store;
the consolidate and daemon commands fold fragmented stores back into the
canonical file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Format, cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "bitprof.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
