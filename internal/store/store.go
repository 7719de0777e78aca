package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the maximum number of records the store keeps.
const DefaultCapacity = 1000

// ErrPersist marks write/rename failures. Unlike load-side corruption,
// persistence failures carry data-loss risk and are always propagated.
var ErrPersist = errors.New("record store persistence failure")

// RecordStore is a bounded, deduplicated collection of ModelRecords backed
// by one canonical JSON file. Records are kept newest-first; no two records
// share an ID; the collection never exceeds its capacity.
//
// The store is loaded lazily on first access. A missing or corrupt
// canonical file yields an empty store, never an error. Every mutation is
// written back atomically: marshalled to a temp file in the same directory,
// then renamed over the canonical path. This protects a single writer from
// partial writes; concurrent writers from independent processes can still
// race on the rename, which is an accepted limitation.
type RecordStore struct {
	mu           sync.Mutex
	path         string
	fragmentDirs []string
	capacity     int
	log          *zap.Logger

	loaded  bool
	records []ModelRecord // newest-first

	consolidations singleflight.Group
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithCapacity overrides the record cap (primarily for tests).
func WithCapacity(n int) Option {
	return func(s *RecordStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithFragmentDirs sets the legacy/fragment locations consolidation scans
// in addition to the canonical file.
func WithFragmentDirs(dirs ...string) Option {
	return func(s *RecordStore) { s.fragmentDirs = dirs }
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *RecordStore) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a RecordStore over the given canonical path. The file is not
// touched until the first access.
func New(path string, opts ...Option) *RecordStore {
	s := &RecordStore{
		path:     path,
		capacity: DefaultCapacity,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the canonical file path.
func (s *RecordStore) Path() string { return s.path }

// Save persists one analysis. An existing record with the same identity
// hash is replaced rather than accumulated. Returns the stored record.
func (s *RecordStore) Save(a Analysis) (ModelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()

	rec := newRecord(a, time.Now())

	kept := s.records[:0]
	for _, existing := range s.records {
		if existing.ID != rec.ID {
			kept = append(kept, existing)
		}
	}
	s.records = append(kept, rec)

	sortByTimestamp(s.records)
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}

	if err := s.writeAtomic(s.records); err != nil {
		return ModelRecord{}, err
	}
	return rec, nil
}

// Load returns a copy of the current records, newest-first.
func (s *RecordStore) Load() []ModelRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()

	out := make([]ModelRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Stats summarizes the store contents for presentation layers.
type Stats struct {
	Records       int
	ByType        map[string]int
	Newest        time.Time
	Oldest        time.Time
	MergedTotal   int
	CanonicalPath string
}

// GetStats computes summary statistics over the loaded store.
func (s *RecordStore) GetStats() Stats {
	records := s.Load()

	stats := Stats{
		Records:       len(records),
		ByType:        make(map[string]int),
		CanonicalPath: s.path,
	}
	for _, r := range records {
		stats.ByType[r.PatternType]++
		if r.MergedCount > 1 {
			stats.MergedTotal += r.MergedCount
		}
		if stats.Newest.IsZero() || r.Timestamp.After(stats.Newest) {
			stats.Newest = r.Timestamp
		}
		if stats.Oldest.IsZero() || r.Timestamp.Before(stats.Oldest) {
			stats.Oldest = r.Timestamp
		}
	}
	return stats
}

// ensureLoaded lazily reads the canonical file. Callers hold s.mu.
func (s *RecordStore) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.records = s.readRecords(s.path)
	sortByTimestamp(s.records)
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
}

// readRecords reads a record file leniently. Missing files and files that
// are not JSON at all produce an empty set; individually invalid records
// are skipped with a logged warning. Corrupt state is self-healing, never
// fatal.
func (s *RecordStore) readRecords(path string) []ModelRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read record file, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Fragments written by older versions may hold a single record.
		var single json.RawMessage
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			s.log.Warn("malformed record file, starting empty",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		raw = []json.RawMessage{single}
	}

	records := make([]ModelRecord, 0, len(raw))
	for i, entry := range raw {
		var rec ModelRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			s.log.Warn("skipping invalid record",
				zap.String("path", path), zap.Int("index", i), zap.Error(err))
			continue
		}
		if err := rec.Validate(); err != nil {
			s.log.Warn("skipping invalid record",
				zap.String("path", path), zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records
}

// writeAtomic marshals records to a temp file next to the canonical path
// and renames it into place. Any failure wraps ErrPersist.
func (s *RecordStore) writeAtomic(records []ModelRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create store directory %s: %v", ErrPersist, dir, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal records: %v", ErrPersist, err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersist, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write temp file: %v", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %v", ErrPersist, err)
	}

	// Rename must come last: a crash before this point leaves the
	// canonical file untouched.
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename into place: %v", ErrPersist, err)
	}
	return nil
}

func sortByTimestamp(records []ModelRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
