package lookup

import (
	"errors"
	"strings"
	"testing"

	"etymon/internal/services"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Cat", "cat"},
		{"trims", "  serendipity  ", "serendipity"},
		{"collapses inner whitespace", "ice  \t cream", "ice cream"},
		{"folds unicode", "Straße", "strasse"},
		{"keeps hyphen", "well-being", "well-being"},
		{"keeps apostrophe", "o'clock", "o'clock"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"digits", "cat42"},
		{"punctuation", "cat;drop"},
		{"too long", strings.Repeat("a", 65)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize(tc.input); !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("Normalize(%q): expected ErrInvalidInput, got %v", tc.input, err)
			}
		})
	}
}

func TestCollapseParagraph(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"complete sentence untouched", "From Latin cattus.", "From Latin cattus."},
		{"newlines flattened", "Line one.\nLine two.", "Line one. Line two."},
		{"truncated tail trimmed", "First sentence. Second half was cut of", "First sentence."},
		{"no sentence end kept", "no punctuation at all", "no punctuation at all"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := collapseParagraph(tc.input); got != tc.want {
				t.Fatalf("collapseParagraph(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
