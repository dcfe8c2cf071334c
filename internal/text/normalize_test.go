package text

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTrim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		maxChars int
		expect   string
	}{
		{
			name:     "strips surrounding whitespace",
			input:    "  \n senior go developer \t",
			maxChars: 100,
			expect:   "senior go developer",
		},
		{
			name:     "cuts to prefix",
			input:    "abcdefghij",
			maxChars: 4,
			expect:   "abcd",
		},
		{
			name:     "counts characters not bytes",
			input:    "zażółć gęślą",
			maxChars: 6,
			expect:   "zażółć",
		},
		{
			name:     "removes whitespace exposed by the cut",
			input:    "abc   def",
			maxChars: 5,
			expect:   "abc",
		},
		{
			name:     "non-positive limit disables the cut",
			input:    " abc ",
			maxChars: 0,
			expect:   "abc",
		},
		{
			name:     "empty",
			input:    "   ",
			maxChars: 10,
			expect:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Trim(tt.input, tt.maxChars); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestTrimIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  plain text  ",
		strings.Repeat("word ", 3000),
		strings.Repeat("ą", MaxChars+10),
		"\t" + strings.Repeat("x", MaxChars-1) + "   tail",
	}

	for _, input := range inputs {
		once := Trim(input, MaxChars)
		twice := Trim(once, MaxChars)
		if once != twice {
			t.Fatalf("trim is not idempotent for input of length %d", len(input))
		}
		if utf8.RuneCountInString(once) > MaxChars {
			t.Fatalf("expected at most %d characters, got %d", MaxChars, utf8.RuneCountInString(once))
		}
	}
}

func TestTrimShortTextOnlyStrips(t *testing.T) {
	input := "\n  Python developer with Docker and AWS  \n"
	if got := Trim(input, MaxChars); got != strings.TrimSpace(input) {
		t.Fatalf("expected stripped text, got %q", got)
	}
}

func TestNormalizeAppliesMaxChars(t *testing.T) {
	got := Normalize(strings.Repeat("a", MaxChars*2))
	if len(got) != MaxChars {
		t.Fatalf("expected %d characters, got %d", MaxChars, len(got))
	}
}
