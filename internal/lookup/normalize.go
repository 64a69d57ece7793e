package lookup

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"etymon/internal/services"
)

const maxWordLength = 64

var foldCaser = cases.Fold()

// Normalize canonicalizes a raw word for use as a cache and history key:
// trimmed, Unicode case-folded, with inner whitespace collapsed to single
// spaces. Returns ErrInvalidInput for empty, oversized, or non-word input.
func Normalize(raw string) (string, error) {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return "", services.Wrap(services.ErrInvalidInput, "lookup", "normalize", "word required", nil)
	}
	folded := foldCaser.String(collapsed)
	runes := []rune(folded)
	if len(runes) > maxWordLength {
		return "", services.Wrap(services.ErrInvalidInput, "lookup", "normalize", "word too long", nil)
	}
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsMark(r) {
			continue
		}
		switch r {
		case ' ', '-', '\'', '’':
			continue
		}
		return "", services.Wrap(services.ErrInvalidInput, "lookup", "normalize", "word contains unsupported characters", nil)
	}
	return folded, nil
}
