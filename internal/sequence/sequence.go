// Package sequence provides the cleaned binary-sequence type that the
// analysis pipeline operates on. Raw input may contain arbitrary characters;
// only '0' and '1' survive cleaning, in their original order.
package sequence

import (
	"errors"
	"strings"
)

// ErrEmptySequence is returned when cleaning leaves no binary symbols.
// This is the only hard precondition in the analysis pipeline.
var ErrEmptySequence = errors.New("sequence contains no binary symbols")

// Sequence holds the raw input and its cleaned binary view.
// Values are immutable after construction.
type Sequence struct {
	raw   string
	clean string
}

// Clean strips every character that is not '0' or '1' from raw,
// preserving order. Pure; no side effects.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '0' || raw[i] == '1' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// New builds a Sequence from raw input. Returns ErrEmptySequence when the
// cleaned view is empty.
func New(raw string) (Sequence, error) {
	clean := Clean(raw)
	if clean == "" {
		return Sequence{}, ErrEmptySequence
	}
	return Sequence{raw: raw, clean: clean}, nil
}

// Raw returns the input as given.
func (s Sequence) Raw() string { return s.raw }

// Clean returns the binary-only view.
func (s Sequence) Clean() string { return s.clean }

// Len returns the length of the cleaned view.
func (s Sequence) Len() int { return len(s.clean) }

// Sample returns at most n leading symbols of the cleaned view, with an
// ellipsis when truncated. Used for degraded reporting and summaries.
func (s Sequence) Sample(n int) string {
	if n <= 0 || len(s.clean) <= n {
		return s.clean
	}
	return s.clean[:n] + "..."
}
