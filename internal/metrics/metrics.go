// Package metrics computes the statistical profile of a cleaned binary
// sequence: entropy, run statistics, burstiness, autocorrelation,
// periodicity, symmetry, sliding-window densities and pattern counts.
//
// Every function here is a pure, deterministic function of the cleaned
// string. Nothing in this package mutates shared state.
package metrics

import (
	"math"
)

// windowSizes are the sliding-window sizes used for density profiling.
var windowSizes = []int{2, 4, 8, 16}

// windowScanLimit caps how much of the sequence the density scan covers.
const windowScanLimit = 100

// patternLengths are the substring lengths counted by PatternCounts.
var patternLengths = []int{2, 3, 4}

// Periodicity is the best (period, score) pair found by DetectPeriodicity.
type Periodicity struct {
	BestPeriod int     `json:"best_period"`
	MatchScore float64 `json:"match_score"`
}

// Metrics is the full statistical profile of one cleaned sequence.
type Metrics struct {
	Entropy             float64           `json:"entropy"`
	LongestRun          int               `json:"longest_run"`
	Burstiness          float64           `json:"burstiness"`
	AlternationRatio    float64           `json:"alternation_ratio"`
	RunRatio            float64           `json:"run_ratio"`
	AutocorrelationLag1 float64           `json:"autocorrelation_lag1"`
	Periodicity         Periodicity       `json:"periodicity"`
	Symmetry            float64           `json:"symmetry"`
	WindowDensities     map[int][]float64 `json:"window_densities"`
	PatternCounts       map[string]int    `json:"pattern_counts"`
}

// Compute runs the full engine over a cleaned sequence.
// The caller guarantees clean is non-empty and contains only '0'/'1'.
func Compute(clean string) Metrics {
	runs := Runs(clean)
	return Metrics{
		Entropy:             Entropy(clean),
		LongestRun:          longestRun(runs),
		Burstiness:          Burstiness(runs),
		AlternationRatio:    AlternationRatio(clean),
		RunRatio:            RunRatio(clean),
		AutocorrelationLag1: AutocorrelationLag1(clean),
		Periodicity:         DetectPeriodicity(clean),
		Symmetry:            Symmetry(clean),
		WindowDensities:     WindowDensities(clean),
		PatternCounts:       PatternCounts(clean),
	}
}

// Entropy is the Shannon symbol-frequency estimate in bits (log base 2).
// A sequence of one repeated symbol has entropy 0; the binary maximum is 1.
func Entropy(clean string) float64 {
	if len(clean) == 0 {
		return 0
	}
	ones := countOnes(clean)
	n := float64(len(clean))
	entropy := 0.0
	for _, count := range []int{ones, len(clean) - ones} {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// Runs run-length-encodes the sequence into maximal single-symbol runs
// and returns the run lengths in order.
func Runs(clean string) []int {
	if len(clean) == 0 {
		return nil
	}
	var runs []int
	current := 1
	for i := 1; i < len(clean); i++ {
		if clean[i] == clean[i-1] {
			current++
			continue
		}
		runs = append(runs, current)
		current = 1
	}
	return append(runs, current)
}

func longestRun(runs []int) int {
	longest := 0
	for _, r := range runs {
		if r > longest {
			longest = r
		}
	}
	return longest
}

// Burstiness is the population standard deviation of the run lengths.
// A single run has burstiness 0.
func Burstiness(runs []int) float64 {
	if len(runs) < 2 {
		return 0
	}
	sum := 0
	for _, r := range runs {
		sum += r
	}
	mean := float64(sum) / float64(len(runs))
	variance := 0.0
	for _, r := range runs {
		d := float64(r) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(runs)))
}

// AlternationRatio is the fraction of non-overlapping adjacent symbol pairs
// ("01"/"10") that differ, out of length/2 pairs.
func AlternationRatio(clean string) float64 {
	pairs := len(clean) / 2
	if pairs == 0 {
		return 0
	}
	transitions := 0
	for i := 0; i+1 < len(clean); i += 2 {
		if clean[i] != clean[i+1] {
			transitions++
		}
	}
	return float64(transitions) / float64(pairs)
}

// RunRatio is the fraction of positions continuing a run of length >= 2,
// i.e. positions whose symbol repeats the previous one, out of the full
// length.
func RunRatio(clean string) float64 {
	if len(clean) == 0 {
		return 0
	}
	continuing := 0
	for i := 1; i < len(clean); i++ {
		if clean[i] == clean[i-1] {
			continuing++
		}
	}
	return float64(continuing) / float64(len(clean))
}

// AutocorrelationLag1 maps symbols to {0,1} and computes
// sum(x[i]*x[i-1]) / (n-1). The mean is deliberately not subtracted: this
// uncentered form is what existing persisted profiles were computed with.
func AutocorrelationLag1(clean string) float64 {
	if len(clean) < 2 {
		return 0
	}
	sum := 0
	for i := 1; i < len(clean); i++ {
		if clean[i] == '1' && clean[i-1] == '1' {
			sum++
		}
	}
	return float64(sum) / float64(len(clean)-1)
}

// DetectPeriodicity scores every candidate period p in [1, len/2] by the
// fraction of positions i with clean[i] == clean[i+p], and returns the best
// pair. Ties keep the smallest period.
func DetectPeriodicity(clean string) Periodicity {
	best := Periodicity{}
	for p := 1; p <= len(clean)/2; p++ {
		matches := 0
		total := len(clean) - p
		for i := 0; i < total; i++ {
			if clean[i] == clean[i+p] {
				matches++
			}
		}
		score := float64(matches) / float64(total)
		if score > best.MatchScore {
			best = Periodicity{BestPeriod: p, MatchScore: score}
		}
	}
	return best
}

// Symmetry compares the first half against the reversed second half
// (middle symbol dropped for odd lengths) and returns the fraction of
// agreeing positions. A single symbol is trivially symmetric.
func Symmetry(clean string) float64 {
	half := len(clean) / 2
	if half == 0 {
		return 1
	}
	matches := 0
	for i := 0; i < half; i++ {
		if clean[i] == clean[len(clean)-1-i] {
			matches++
		}
	}
	return float64(matches) / float64(half)
}

// WindowDensities slices the leading min(100, len) symbols into
// non-overlapping windows for each window size and records each window's
// fraction of '1' symbols. Window sizes with no complete window are absent.
func WindowDensities(clean string) map[int][]float64 {
	limit := len(clean)
	if limit > windowScanLimit {
		limit = windowScanLimit
	}
	densities := make(map[int][]float64)
	for _, size := range windowSizes {
		for start := 0; start+size <= limit; start += size {
			ones := countOnes(clean[start : start+size])
			densities[size] = append(densities[size], float64(ones)/float64(size))
		}
	}
	return densities
}

// PatternCounts counts every overlapping substring of lengths 2-4.
func PatternCounts(clean string) map[string]int {
	counts := make(map[string]int)
	for _, length := range patternLengths {
		for i := 0; i+length <= len(clean); i++ {
			counts[clean[i:i+length]]++
		}
	}
	return counts
}

func countOnes(s string) int {
	ones := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			ones++
		}
	}
	return ones
}
