package predict

import (
	"math/rand"
	"strings"
	"testing"

	"bitprof/internal/classify"
)

func normal(ct classify.ComplexityType) classify.Classification {
	return classify.Classification{Kind: classify.KindNormal, ComplexityType: ct}
}

func TestPredictAlternating(t *testing.T) {
	p := New()

	tests := []struct {
		clean string
		want  string
	}{
		{"10101010", "1010"}, // trailing '0' flips to '1'
		{"01010101", "0101"}, // trailing '1' flips to '0'
	}
	for _, tt := range tests {
		got := p.Predict(tt.clean, normal(classify.ComplexityAlternating), 4)
		if got != tt.want {
			t.Errorf("Predict(%q, alternating, 4) = %q, want %q", tt.clean, got, tt.want)
		}
	}
}

func TestPredictRunBased(t *testing.T) {
	p := New()

	tests := []struct {
		name  string
		clean string
		want  string
	}{
		// Trailing run of 3 equals the longest run: the run is assumed
		// over, predict the flip.
		{"RunEnding", "111000", "1111"},
		// Trailing run of 1 against a longest run of 4: extend the run.
		{"RunContinuing", "11110", "0000"},
		// Trailing run of 2 against a longest run of 4: exactly half,
		// still counts as ending.
		{"RunAtHalf", "1111001100", "1111"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Predict(tt.clean, normal(classify.ComplexityRunBased), 4)
			if got != tt.want {
				t.Errorf("Predict(%q, run-based, 4) = %q, want %q", tt.clean, got, tt.want)
			}
		})
	}
}

func TestPredictMixedWithHistory(t *testing.T) {
	p := New()

	// The trailing window "11001100" occurs at offsets 0 and 4, both
	// followed by "1100": the historical continuation must win.
	clean := "1100110011001100"
	got := p.Predict(clean, normal(classify.ComplexityMixed), 4)
	if got != "1100" {
		t.Errorf("Predict(%q, mixed, 4) = %q, want %q", clean, got, "1100")
	}
}

func TestPredictMixedTieBreak(t *testing.T) {
	p := New()

	// The trailing window "00000001" recurs twice with different
	// continuations, each seen once; the first-encountered continuation
	// wins the tie.
	clean := "00000001" + "11" + "00000001" + "01" + "00000001"
	got := p.Predict(clean, normal(classify.ComplexityMixed), 2)
	if got != "11" {
		t.Errorf("Predict(%q, mixed, 2) = %q, want first-seen %q", clean, got, "11")
	}
}

func TestPredictMixedPartialContinuation(t *testing.T) {
	// The trailing window "01010101" recurs once, at offset 0, but only two
	// symbols follow it there: a truncated continuation gets no vote and the
	// heuristic falls through to the sampler. Both inputs have '1' density
	// 0.5, so an equal seed must produce the sampler's exact output.
	a := NewWithSource(rand.NewSource(9))
	b := NewWithSource(rand.NewSource(9))

	got := a.Predict("0101010101", normal(classify.ComplexityMixed), 4)
	want := b.Predict("0110", normal(classify.ComplexityMixed), 4) // no history at all

	if got != want {
		t.Errorf("partial continuation must not vote: got %q, sampler would give %q", got, want)
	}
}

func TestPredictMixedFallback(t *testing.T) {
	// No history can match a window that never recurs; the fallback
	// samples from the injected source and must be deterministic per seed.
	a := NewWithSource(rand.NewSource(42))
	b := NewWithSource(rand.NewSource(42))

	clean := "0110"
	gotA := a.Predict(clean, normal(classify.ComplexityMixed), 16)
	gotB := b.Predict(clean, normal(classify.ComplexityMixed), 16)

	if gotA != gotB {
		t.Errorf("seeded fallback not deterministic: %q vs %q", gotA, gotB)
	}
	if len(gotA) != 16 {
		t.Fatalf("prediction length = %d, want 16", len(gotA))
	}
	for i := 0; i < len(gotA); i++ {
		if gotA[i] != '0' && gotA[i] != '1' {
			t.Fatalf("prediction contains non-binary symbol %q", gotA[i])
		}
	}
}

func TestPredictDegenerateKinds(t *testing.T) {
	p := New()

	if got := p.Predict("000000", classify.Classification{Kind: classify.KindZero}, 4); got != "0000" {
		t.Errorf("zero kind prediction = %q, want 0000", got)
	}
	if got := p.Predict("111111", classify.Classification{Kind: classify.KindInfinite}, 4); got != "1111" {
		t.Errorf("infinite kind prediction = %q, want 1111", got)
	}
}

func TestPredictDefaultLength(t *testing.T) {
	p := New()

	got := p.Predict("10101010", normal(classify.ComplexityAlternating), 0)
	if len(got) != DefaultLength {
		t.Errorf("default prediction length = %d, want %d", len(got), DefaultLength)
	}
	if got != strings.Repeat("10", 4) {
		t.Errorf("prediction = %q, want %q", got, "10101010")
	}
}

func TestPredictNeverEmpty(t *testing.T) {
	p := NewWithSource(rand.NewSource(1))

	for _, clean := range []string{"0", "1", "01", "0110100101101001"} {
		for _, ct := range []classify.ComplexityType{
			classify.ComplexityAlternating,
			classify.ComplexityRunBased,
			classify.ComplexityMixed,
		} {
			got := p.Predict(clean, normal(ct), 8)
			if len(got) != 8 {
				t.Errorf("Predict(%q, %s) length = %d, want 8", clean, ct, len(got))
			}
		}
	}
}
