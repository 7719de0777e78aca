package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bitprof/internal/store"
)

// daemonCmd runs the background consolidation scheduler until interrupted.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic background consolidation",
	Long: `Runs the consolidation scheduler in the foreground. Passes repeat on
an adaptive interval; with watch_fragments enabled, new fragments trigger
an early pass. Stops cleanly on SIGINT/SIGTERM.`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := newStoreFromConfig()
	scheduler := store.NewScheduler(st, store.SchedulerConfig{
		MinInterval: cfg.GetMinInterval(),
		MaxInterval: cfg.GetMaxInterval(),
	}, logger)

	scheduler.Start(ctx)
	defer scheduler.Stop()

	var watcher *store.FragmentWatcher
	if cfg.Consolidation.WatchFragments {
		var err error
		watcher, err = store.NewFragmentWatcher(cfg.Store.FragmentDirs, scheduler, logger)
		if err != nil {
			return fmt.Errorf("failed to create fragment watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start fragment watcher: %w", err)
		}
		defer watcher.Stop()
	}

	logger.Info("consolidation daemon running",
		zap.String("store", cfg.Store.Path),
		zap.Strings("fragment_dirs", cfg.Store.FragmentDirs),
		zap.Bool("watching", watcher != nil))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
