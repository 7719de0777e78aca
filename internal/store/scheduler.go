package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler interval bounds and adaptive thresholds. A pass that scans more
// than growRecordThreshold records or runs longer than growDurationThreshold
// pushes the interval up; lighter passes pull it back down.
const (
	MinConsolidateInterval = 60 * time.Second
	MaxConsolidateInterval = 300 * time.Second

	growRecordThreshold   = 1000
	growDurationThreshold = time.Second

	intervalGrowFactor   = 1.5
	intervalShrinkFactor = 0.75
)

// SchedulerConfig configures the consolidation scheduler.
type SchedulerConfig struct {
	// MinInterval and MaxInterval bound the adaptive pass interval.
	// Zero values use the package defaults.
	MinInterval time.Duration
	MaxInterval time.Duration
}

// ConsolidationScheduler runs periodic background consolidation with
// adaptive backoff. Passes are serialized: the in-flight pass is shared
// through the store's single-flight gate, so neither the timer nor a nudge
// from the fragment watcher can overlap a pass with itself.
type ConsolidationScheduler struct {
	store *RecordStore
	log   *zap.Logger

	minInterval time.Duration
	maxInterval time.Duration

	mu       sync.Mutex
	interval time.Duration
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	nudgeCh  chan struct{}
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store *RecordStore, cfg SchedulerConfig, log *zap.Logger) *ConsolidationScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	min := cfg.MinInterval
	if min <= 0 {
		min = MinConsolidateInterval
	}
	max := cfg.MaxInterval
	if max < min {
		max = MaxConsolidateInterval
	}
	return &ConsolidationScheduler{
		store:       store,
		log:         log,
		minInterval: min,
		maxInterval: max,
		interval:    min,
		nudgeCh:     make(chan struct{}, 1),
	}
}

// Interval returns the current adaptive interval.
func (cs *ConsolidationScheduler) Interval() time.Duration {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.interval
}

// Start launches the background loop. Idempotent while running.
func (cs *ConsolidationScheduler) Start(ctx context.Context) {
	cs.mu.Lock()
	if cs.running {
		cs.mu.Unlock()
		return
	}
	cs.running = true
	cs.stopCh = make(chan struct{})
	cs.doneCh = make(chan struct{})
	stop, done := cs.stopCh, cs.doneCh
	cs.mu.Unlock()

	go cs.run(ctx, stop, done)
}

// Stop cancels the loop and waits for any in-flight pass to finish.
func (cs *ConsolidationScheduler) Stop() {
	cs.mu.Lock()
	if !cs.running {
		cs.mu.Unlock()
		return
	}
	cs.running = false
	stop, done := cs.stopCh, cs.doneCh
	cs.stopCh = nil
	cs.doneCh = nil
	cs.mu.Unlock()

	close(stop)
	<-done
}

// Nudge requests an early pass, e.g. when the fragment watcher sees new
// fragments. Non-blocking; redundant nudges collapse.
func (cs *ConsolidationScheduler) Nudge() {
	select {
	case cs.nudgeCh <- struct{}{}:
	default:
	}
}

func (cs *ConsolidationScheduler) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(cs.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-cs.nudgeCh:
		case <-timer.C:
		}

		cs.runPass()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(cs.Interval())
	}
}

// runPass executes one consolidation pass and adapts the interval from its
// outcome.
func (cs *ConsolidationScheduler) runPass() {
	res, err := cs.store.Consolidate()
	if err != nil {
		cs.log.Warn("background consolidation failed", zap.Error(err))
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if res.Scanned > growRecordThreshold || res.Duration > growDurationThreshold {
		cs.interval = time.Duration(float64(cs.interval) * intervalGrowFactor)
	} else {
		cs.interval = time.Duration(float64(cs.interval) * intervalShrinkFactor)
	}
	if cs.interval < cs.minInterval {
		cs.interval = cs.minInterval
	}
	if cs.interval > cs.maxInterval {
		cs.interval = cs.maxInterval
	}
}
