// Package predict proposes the next symbols of a classified binary
// sequence. The heuristics degrade gracefully: absence of matching history
// falls back to per-symbol sampling, and no path returns an error.
package predict

import (
	"math/rand"
	"strings"
	"time"

	"bitprof/internal/classify"
)

// DefaultLength is how many symbols Predict produces when the caller does
// not ask for a specific horizon.
const DefaultLength = 8

// matchWindow is the trailing-context width used by the mixed-pattern
// history scan.
const matchWindow = 8

// Predictor generates next-symbol predictions. The random source is only
// consulted by the probabilistic fallback of the mixed heuristic.
type Predictor struct {
	rng *rand.Rand
}

// New returns a Predictor with a time-seeded fallback source.
func New() *Predictor {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Predictor using the given source, so tests can
// make the fallback deterministic.
func NewWithSource(src rand.Source) *Predictor {
	return &Predictor{rng: rand.New(src)}
}

// Predict produces exactly length symbols extending clean, guided by its
// classification. A non-positive length uses DefaultLength.
func (p *Predictor) Predict(clean string, c classify.Classification, length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	if clean == "" {
		return strings.Repeat("0", length)
	}

	switch c.Kind {
	case classify.KindZero:
		return strings.Repeat("0", length)
	case classify.KindInfinite:
		return strings.Repeat("1", length)
	}

	switch c.ComplexityType {
	case classify.ComplexityAlternating:
		return predictAlternating(clean, length)
	case classify.ComplexityRunBased:
		return predictRunBased(clean, length)
	default:
		return p.predictMixed(clean, length)
	}
}

// predictAlternating continues the alternation: each predicted symbol is
// the flip of the one before it, starting from the flip of the last symbol.
func predictAlternating(clean string, length int) string {
	var b strings.Builder
	b.Grow(length)
	last := clean[len(clean)-1]
	for i := 0; i < length; i++ {
		last = flip(last)
		b.WriteByte(last)
	}
	return b.String()
}

// predictRunBased extends or breaks the trailing run. When the trailing run
// has reached at least half of the longest run seen, the run is assumed to
// be ending and the flipped symbol is predicted; otherwise the run goes on.
func predictRunBased(clean string, length int) string {
	symbol := clean[len(clean)-1]
	trailing := 1
	for i := len(clean) - 2; i >= 0 && clean[i] == symbol; i-- {
		trailing++
	}

	longest := 0
	current := 1
	for i := 1; i < len(clean); i++ {
		if clean[i] == clean[i-1] {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	if longest == 0 {
		longest = 1
	}

	if float64(trailing) >= float64(longest)/2 {
		return strings.Repeat(string(flip(symbol)), length)
	}
	return strings.Repeat(string(symbol), length)
}

// predictMixed scans history for earlier occurrences of the trailing window
// and predicts the most frequent continuation, ties broken by first
// encounter. Only matches followed by a full length-sized continuation get a
// vote; a match too close to the end of the sequence carries a truncated
// continuation and is ignored rather than padded. With no votes it samples
// each symbol independently with P('1') equal to the overall density of '1'.
func (p *Predictor) predictMixed(clean string, length int) string {
	window := clean
	if len(window) > matchWindow {
		window = clean[len(clean)-matchWindow:]
	}

	counts := make(map[string]int)
	var order []string
	for i := 0; i+len(window)+length <= len(clean); i++ {
		if clean[i:i+len(window)] != window {
			continue
		}
		continuation := clean[i+len(window) : i+len(window)+length]
		if counts[continuation] == 0 {
			order = append(order, continuation)
		}
		counts[continuation]++
	}

	best := ""
	bestCount := 0
	for _, continuation := range order {
		if counts[continuation] > bestCount {
			best = continuation
			bestCount = counts[continuation]
		}
	}
	if best != "" {
		return best
	}

	return p.sample(clean, length)
}

// sample draws length independent symbols with P('1') = density of '1'.
func (p *Predictor) sample(clean string, length int) string {
	ones := strings.Count(clean, "1")
	pOne := float64(ones) / float64(len(clean))

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		if p.rng.Float64() < pOne {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func flip(symbol byte) byte {
	if symbol == '0' {
		return '1'
	}
	return '0'
}
