// Package store persists analysis results as a bounded, deduplicated,
// newest-first collection of model records on disk. The canonical file is a
// JSON array written atomically (temp file, then rename); fragments from
// legacy locations can be folded back in by consolidation.
package store

import (
	"fmt"
	"hash/fnv"
	"time"
)

// identityPrefixLen bounds how much of the clean sequence participates in
// the identity hash. Sequences differing only beyond this prefix (with equal
// rounded entropy and type) are the same logical record.
const identityPrefixLen = 32

// entropyPrecision is the rounding applied to entropy for identity hashing
// and consolidation grouping: 4 decimal places.
const entropyPrecision = 1e4

// RecordMetrics is the persisted snapshot of the analysis metrics.
type RecordMetrics struct {
	Entropy         float64 `json:"entropy"`
	ComplexityLevel float64 `json:"complexity_level"`
	Burstiness      float64 `json:"burstiness"`
}

// ModelRecord is one persisted analysis.
type ModelRecord struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	PatternType string        `json:"pattern_type"`
	Metrics     RecordMetrics `json:"metrics"`
	Summary     string        `json:"summary"`

	// MergedCount is how many source records consolidation folded into
	// this one. Absent for records that were never merged.
	MergedCount int `json:"merged_count,omitempty"`
}

// Validate checks the structural invariants a record must satisfy to be
// loaded. Records failing validation are dropped, not fatal.
func (r ModelRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has empty id")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("record %s has zero timestamp", r.ID)
	}
	if r.PatternType == "" {
		return fmt.Errorf("record %s has empty pattern type", r.ID)
	}
	return nil
}

// Analysis is the projection of one analysis result that the store
// persists. The store never touches the originating result object.
type Analysis struct {
	Clean           string
	PatternType     string
	Entropy         float64
	ComplexityLevel float64
	Burstiness      float64
}

// IdentityHash derives the content identity of an analysis from its rounded
// entropy, its pattern type, and a bounded prefix of the clean sequence.
// Pure: equal inputs always hash equally.
func IdentityHash(entropy float64, patternType, clean string) string {
	prefix := clean
	if len(prefix) > identityPrefixLen {
		prefix = prefix[:identityPrefixLen]
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%.4f|%s|%s", roundEntropy(entropy), patternType, prefix)
	return fmt.Sprintf("%016x", h.Sum64())
}

func roundEntropy(entropy float64) float64 {
	return float64(int64(entropy*entropyPrecision+0.5)) / entropyPrecision
}

// newRecord builds the persisted record for one analysis.
func newRecord(a Analysis, now time.Time) ModelRecord {
	return ModelRecord{
		ID:          IdentityHash(a.Entropy, a.PatternType, a.Clean),
		Timestamp:   now,
		PatternType: a.PatternType,
		Metrics: RecordMetrics{
			Entropy:         a.Entropy,
			ComplexityLevel: a.ComplexityLevel,
			Burstiness:      a.Burstiness,
		},
		Summary: fmt.Sprintf("%s pattern over %d symbols, entropy %.3f, complexity %.3f",
			a.PatternType, len(a.Clean), a.Entropy, a.ComplexityLevel),
	}
}
