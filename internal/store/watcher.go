package store

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce batches rapid fragment writes into one nudge.
const watchDebounce = 500 * time.Millisecond

// FragmentWatcher watches the configured fragment directories and nudges
// the consolidation scheduler when new record fragments appear, so stale
// fragments get folded in ahead of the next timer tick. Consolidation still
// only ever runs through the scheduler's serialized pass.
type FragmentWatcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	scheduler *ConsolidationScheduler
	dirs      []string
	log       *zap.Logger
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewFragmentWatcher creates a watcher over the given fragment directories.
func NewFragmentWatcher(dirs []string, scheduler *ConsolidationScheduler, log *zap.Logger) (*FragmentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FragmentWatcher{
		watcher:   watcher,
		scheduler: scheduler,
		dirs:      dirs,
		log:       log,
	}, nil
}

// Start begins watching. Directories that do not exist yet are created so
// the watch can be established. Non-blocking.
func (fw *FragmentWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.stopCh = make(chan struct{})
	fw.doneCh = make(chan struct{})
	stop, done := fw.stopCh, fw.doneCh
	fw.mu.Unlock()

	for _, dir := range fw.dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fw.log.Warn("failed to create fragment directory",
				zap.String("dir", dir), zap.Error(err))
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			fw.log.Warn("failed to watch fragment directory",
				zap.String("dir", dir), zap.Error(err))
			continue
		}
		fw.log.Info("watching fragment directory", zap.String("dir", dir))
	}

	go fw.run(ctx, stop, done)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (fw *FragmentWatcher) Stop() {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return
	}
	fw.running = false
	stop, done := fw.stopCh, fw.doneCh
	fw.stopCh = nil
	fw.doneCh = nil
	fw.mu.Unlock()

	close(stop)
	<-done

	if err := fw.watcher.Close(); err != nil {
		fw.log.Warn("error closing fragment watcher", zap.Error(err))
	}
}

func (fw *FragmentWatcher) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fragmentEvent(event) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
				debounceC = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(watchDebounce)
			}
		case <-debounceC:
			debounce = nil
			debounceC = nil
			fw.log.Debug("fragment activity, requesting consolidation")
			fw.scheduler.Nudge()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("fragment watcher error", zap.Error(err))
		}
	}
}

// fragmentEvent reports whether an fsnotify event concerns a record
// fragment worth consolidating.
func fragmentEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".json") {
		return false
	}
	return event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Rename)
}
