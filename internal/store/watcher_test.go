package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFragmentWatcherStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	fragDir := filepath.Join(dir, "fragments")
	s := New(filepath.Join(dir, "records.json"), WithFragmentDirs(fragDir))
	scheduler := NewScheduler(s, SchedulerConfig{
		MinInterval: time.Hour,
		MaxInterval: 2 * time.Hour,
	}, nil)

	watcher, err := NewFragmentWatcher([]string{fragDir}, scheduler, nil)
	require.NoError(t, err)

	require.NoError(t, watcher.Start(context.Background()))
	require.NoError(t, watcher.Start(context.Background())) // idempotent
	watcher.Stop()
	watcher.Stop() // idempotent
}

func TestFragmentWatcherTriggersConsolidation(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	fragDir := filepath.Join(dir, "fragments")
	s := New(filepath.Join(dir, "records.json"), WithFragmentDirs(fragDir))

	scheduler := NewScheduler(s, SchedulerConfig{
		MinInterval: time.Hour,
		MaxInterval: 2 * time.Hour,
	}, nil)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	watcher, err := NewFragmentWatcher([]string{fragDir}, scheduler, nil)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	// Dropping a fragment must, after the debounce, end up consolidated
	// into the canonical store without waiting for the hourly timer.
	writeFragment(t, filepath.Join(fragDir, "drop.json"),
		fragmentRecord("watched", "mixed", 0.6, 1.0, 0.2, time.Now()))

	deadline := time.After(10 * time.Second)
	for {
		records := s.Load()
		if len(records) == 1 && records[0].ID == "watched" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("fragment drop did not trigger consolidation")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestFragmentEventFilter(t *testing.T) {
	// Only JSON fragments are interesting; editor temp files and
	// removals must not wake the scheduler.
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"JSONCreate", "frag.json", true},
		{"TempFile", "frag.json~", false},
		{"OtherExt", "frag.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: tt.path, Op: fsnotify.Create}
			if got := fragmentEvent(event); got != tt.want {
				t.Errorf("fragmentEvent(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	remove := fsnotify.Event{Name: "frag.json", Op: fsnotify.Remove}
	if fragmentEvent(remove) {
		t.Error("removal events must not wake the scheduler")
	}
}
