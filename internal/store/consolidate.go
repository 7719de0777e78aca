package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// mergeDecay is the recency weight base: the i-th-newest member of a merge
// group contributes with weight mergeDecay^i.
const mergeDecay = 0.8

// ConsolidateResult reports what one consolidation pass did. The scheduler
// uses Scanned and Duration for its adaptive backoff.
type ConsolidateResult struct {
	Scanned  int
	Skipped  int
	Merged   int
	Kept     int
	Removed  int
	Duration time.Duration
}

// Consolidate folds the canonical store and every record fragment found in
// the given paths into one canonical, deduplicated, capped store.
//
// When no paths are given, the canonical file and the configured fragment
// directories are scanned. Near-duplicate records, grouped by pattern type
// and entropy rounded to 4 decimals, are merged with recency-weighted
// averaging of complexity level and burstiness. Corrupt fragments are
// logged and skipped, never fatal; only write failures propagate.
//
// Concurrent calls share a single in-flight pass: a pass that is still
// running is never doubled by the timer or the fragment watcher.
func (s *RecordStore) Consolidate(paths ...string) (ConsolidateResult, error) {
	v, err, _ := s.consolidations.Do("consolidate", func() (interface{}, error) {
		return s.consolidate(paths)
	})
	res, _ := v.(ConsolidateResult)
	return res, err
}

func (s *RecordStore) consolidate(paths []string) (ConsolidateResult, error) {
	start := time.Now()

	// The whole read-merge-write cycle holds the store lock: a Save that is
	// acknowledged can never land between the scan and the write-back and be
	// silently overwritten.
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(paths) == 0 {
		paths = append([]string{s.path}, s.fragmentDirs...)
	}

	files := s.collectFragmentFiles(paths)

	var res ConsolidateResult
	var all []ModelRecord
	for _, file := range files {
		records := s.readRecords(file)
		res.Scanned += len(records)
		all = append(all, records...)
	}

	all, dropped := dedupeExact(all)
	res.Skipped += dropped

	merged := mergeGroups(groupRecords(all))
	res.Merged = len(all) - len(merged)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Metrics.Entropy != merged[j].Metrics.Entropy {
			return merged[i].Metrics.Entropy > merged[j].Metrics.Entropy
		}
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	if len(merged) > s.capacity {
		merged = merged[:s.capacity]
	}
	res.Kept = len(merged)

	if err := s.writeAtomic(merged); err != nil {
		return res, fmt.Errorf("consolidate: %w", err)
	}
	s.loaded = true
	s.records = merged

	res.Removed = s.removeFragments(files)

	res.Duration = time.Since(start)
	s.log.Info("consolidation pass complete",
		zap.Int("scanned", res.Scanned),
		zap.Int("kept", res.Kept),
		zap.Int("merged", res.Merged),
		zap.Int("removed_fragments", res.Removed),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// collectFragmentFiles expands the given paths into the list of JSON files
// to scan. Directories are walked non-recursively; unreadable locations are
// logged and skipped.
func (s *RecordStore) collectFragmentFiles(paths []string) []string {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			s.log.Warn("skipping unreadable fragment directory",
				zap.String("path", path), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			add(filepath.Join(path, entry.Name()))
		}
	}
	return files
}

// dedupeExact removes records that are byte-for-byte equal once encoded.
// This is a defensive pass, distinct from the semantic id-based dedup.
func dedupeExact(records []ModelRecord) ([]ModelRecord, int) {
	seen := make(map[string]bool, len(records))
	unique := records[:0]
	dropped := 0
	for _, rec := range records {
		encoded, err := json.Marshal(rec)
		if err != nil {
			dropped++
			continue
		}
		key := string(encoded)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		unique = append(unique, rec)
	}
	return unique, dropped
}

// groupRecords buckets records by (pattern type, entropy rounded to 4
// decimals), preserving first-seen group order.
func groupRecords(records []ModelRecord) [][]ModelRecord {
	index := make(map[string]int)
	var groups [][]ModelRecord
	for _, rec := range records {
		key := fmt.Sprintf("%s|%.4f", rec.PatternType, roundEntropy(rec.Metrics.Entropy))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}

// mergeGroups collapses each group to one record. Singleton groups pass
// through untouched, so consolidating an already-consolidated store is a
// no-op. Larger groups keep the newest member's identity, entropy and
// pattern type, and average complexity level and burstiness with recency
// weights mergeDecay^i over the members sorted newest-first.
func mergeGroups(groups [][]ModelRecord) []ModelRecord {
	merged := make([]ModelRecord, 0, len(groups))
	for _, group := range groups {
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		sortByTimestamp(group)

		weightSum := 0.0
		complexity := 0.0
		burstiness := 0.0
		for i, member := range group {
			w := math.Pow(mergeDecay, float64(i))
			weightSum += w
			complexity += member.Metrics.ComplexityLevel * w
			burstiness += member.Metrics.Burstiness * w
		}

		rec := group[0]
		rec.Metrics.ComplexityLevel = complexity / weightSum
		rec.Metrics.Burstiness = burstiness / weightSum
		rec.MergedCount = len(group)
		merged = append(merged, rec)
	}
	return merged
}

// removeFragments deletes the stale fragment files that were folded into
// the canonical store, then prunes fragment directories left empty.
func (s *RecordStore) removeFragments(files []string) int {
	removed := 0
	for _, file := range files {
		if file == s.path {
			continue
		}
		if err := os.Remove(file); err != nil {
			s.log.Warn("failed to remove stale fragment",
				zap.String("path", file), zap.Error(err))
			continue
		}
		removed++
	}

	for _, dir := range s.fragmentDirs {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}
	return removed
}
