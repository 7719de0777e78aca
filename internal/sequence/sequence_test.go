package sequence

import (
	"errors"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"AlreadyClean", "010110", "010110"},
		{"MixedNoise", "1a0b1c0", "1010"},
		{"Whitespace", " 1 0 1 0 ", "1010"},
		{"OnlyNoise", "abc xyz", ""},
		{"Empty", "", ""},
		{"Digits", "0123456789", "01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	seq, err := New("1x0y1")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if seq.Raw() != "1x0y1" {
		t.Errorf("Raw = %q, want %q", seq.Raw(), "1x0y1")
	}
	if seq.Clean() != "101" {
		t.Errorf("Clean = %q, want %q", seq.Clean(), "101")
	}
	if seq.Len() != 3 {
		t.Errorf("Len = %d, want 3", seq.Len())
	}
}

func TestNewEmpty(t *testing.T) {
	for _, raw := range []string{"", "abc", " \t\n"} {
		if _, err := New(raw); !errors.Is(err, ErrEmptySequence) {
			t.Errorf("New(%q) error = %v, want ErrEmptySequence", raw, err)
		}
	}
}

func TestSample(t *testing.T) {
	seq, err := New("110011001100")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := seq.Sample(4); got != "1100..." {
		t.Errorf("Sample(4) = %q, want %q", got, "1100...")
	}
	if got := seq.Sample(100); got != "110011001100" {
		t.Errorf("Sample(100) = %q, want full sequence", got)
	}
	if got := seq.Sample(0); got != "110011001100" {
		t.Errorf("Sample(0) = %q, want full sequence", got)
	}
}
