// Package classify maps a metrics profile to a coarse pattern kind,
// a complexity type, and a confidence score.
package classify

import (
	"strings"

	"bitprof/internal/metrics"
)

// Kind is the coarse pattern category of a sequence.
type Kind string

const (
	// KindZero is a sequence of only '0' symbols.
	KindZero Kind = "zero"

	// KindInfinite is a sequence of only '1' symbols.
	KindInfinite Kind = "infinite"

	// KindNormal is any sequence containing both symbols.
	KindNormal Kind = "normal"
)

// ComplexityType subdivides normal sequences by their dominant structure.
type ComplexityType string

const (
	ComplexityAlternating ComplexityType = "alternating"
	ComplexityRunBased    ComplexityType = "run-based"
	ComplexityMixed       ComplexityType = "mixed"
)

// Classification thresholds. Alternation is checked before run density.
const (
	alternationThreshold = 0.4
	runRatioThreshold    = 0.3
)

// Classification is the output of Classify for one sequence.
// ComplexityType and ComplexityLevel are only meaningful for KindNormal.
type Classification struct {
	Kind            Kind           `json:"kind"`
	ComplexityType  ComplexityType `json:"complexity_type,omitempty"`
	ComplexityLevel float64        `json:"complexity_level"`
}

// PatternType is the persisted type label: the complexity type for normal
// sequences, the kind for degenerate ones.
func (c Classification) PatternType() string {
	if c.Kind == KindNormal {
		return string(c.ComplexityType)
	}
	return string(c.Kind)
}

// Classify categorizes a cleaned sequence given its metrics.
func Classify(clean string, m metrics.Metrics) Classification {
	switch {
	case strings.Count(clean, "1") == len(clean):
		return Classification{Kind: KindInfinite}
	case strings.Count(clean, "0") == len(clean):
		return Classification{Kind: KindZero}
	}

	c := Classification{Kind: KindNormal}
	switch {
	case m.AlternationRatio > alternationThreshold:
		c.ComplexityType = ComplexityAlternating
	case m.RunRatio > runRatioThreshold:
		c.ComplexityType = ComplexityRunBased
	default:
		c.ComplexityType = ComplexityMixed
	}
	c.ComplexityLevel = m.Entropy * (1 + float64(m.LongestRun)/float64(len(clean)))
	return c
}

// Confidence scores how predictable the sequence looks:
// 0.4*(1-entropy) + 0.3*complexityLevel + 0.3*autocorrelationLag1.
//
// The raw value can exceed [0,1]; it is stored unclamped so that persisted
// profiles stay comparable. Presentation layers clamp for display.
func Confidence(m metrics.Metrics, c Classification) float64 {
	return 0.4*(1-m.Entropy) + 0.3*c.ComplexityLevel + 0.3*m.AutocorrelationLag1
}

// ClampConfidence bounds a confidence value to [0,1] for display.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
