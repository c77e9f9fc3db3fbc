package diary

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim whitespace",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "collapse internal whitespace",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "case preserved",
			input: "Hello World",
			want:  "Hello World",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\n  world",
			want:  "hello world",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashText_StableAcrossWhitespace(t *testing.T) {
	a := HashText("Shipped the new scheduler today")
	b := HashText("  Shipped   the new\nscheduler today  ")

	if a != b {
		t.Errorf("hashes differ for whitespace-equivalent texts: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 (sha256 hex)", len(a))
	}
}

func TestHashText_CaseInsensitive(t *testing.T) {
	if HashText("Hello World") != HashText("hello world") {
		t.Error("hashes differ for case-equivalent texts")
	}
}

func TestHashText_DistinctTexts(t *testing.T) {
	if HashText("first entry") == HashText("second entry") {
		t.Error("distinct texts produced the same hash")
	}
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"abc", 3},
		{"héllo", 5},
		{"日記", 2},
	}

	for _, tt := range tests {
		if got := CountChars(tt.input); got != tt.want {
			t.Errorf("CountChars(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
