package lookup

import (
	"strings"

	"etymon/internal/services/gemini"
)

// Degradation reasons attached to artifacts served without provider data.
const (
	ReasonQuota    = "quota"
	ReasonOverload = "overload"
)

// WordArtifact is the full etymology payload served to clients. When the
// provider could not answer, Degraded is set and DegradedReason explains
// whether quota or overload caused the fallback.
type WordArtifact struct {
	Word           string            `json:"word"`
	Phonetic       string            `json:"phonetic,omitempty"`
	PartOfSpeech   string            `json:"partOfSpeech,omitempty"`
	Definition     string            `json:"definition"`
	Etymology      string            `json:"etymology"`
	Roots          []gemini.WordRoot `json:"roots,omitempty"`
	Examples       []string          `json:"examples,omitempty"`
	Synonyms       []string          `json:"synonyms,omitempty"`
	FunFact        string            `json:"funFact,omitempty"`
	Degraded       bool              `json:"degraded"`
	DegradedReason string            `json:"degradedReason,omitempty"`
}

// SummaryArtifact is the one-paragraph origin story for a word.
type SummaryArtifact struct {
	Word           string `json:"word"`
	Summary        string `json:"summary"`
	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degradedReason,omitempty"`
}

// MediaArtifact is a generated audio or image payload, base64 encoded.
type MediaArtifact struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

func artifactFromEntry(word string, entry gemini.WordEntry) WordArtifact {
	artifact := WordArtifact{
		Word:         strings.TrimSpace(entry.Word),
		Phonetic:     entry.Phonetic,
		PartOfSpeech: entry.PartOfSpeech,
		Definition:   entry.Definition,
		Etymology:    entry.Etymology,
		Roots:        entry.Roots,
		Examples:     entry.Examples,
		Synonyms:     entry.Synonyms,
		FunFact:      entry.FunFact,
	}
	if artifact.Word == "" {
		artifact.Word = word
	}
	return artifact
}

func degradedArtifact(word, reason string) WordArtifact {
	return WordArtifact{
		Word:           word,
		Definition:     "Definition temporarily unavailable.",
		Etymology:      "The etymology service is busy right now. This word's story will load on your next visit.",
		Degraded:       true,
		DegradedReason: reason,
	}
}

func degradedSummary(word, reason string) SummaryArtifact {
	return SummaryArtifact{
		Word:           word,
		Summary:        "The origin story for this word could not be generated right now. Please try again in a few minutes.",
		Degraded:       true,
		DegradedReason: reason,
	}
}

// collapseParagraph flattens model output to a single paragraph and, when
// the text was cut off mid-sentence, trims it back to the last complete
// sentence.
func collapseParagraph(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return ""
	}
	last := collapsed[len(collapsed)-1]
	if last == '.' || last == '!' || last == '?' {
		return collapsed
	}
	cut := strings.LastIndexAny(collapsed, ".!?")
	if cut < 0 {
		return collapsed
	}
	return collapsed[:cut+1]
}
