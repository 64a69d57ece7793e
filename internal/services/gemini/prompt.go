package gemini

import "fmt"

func wordEntryPrompt(word string) string {
	return fmt.Sprintf(`You are an expert etymologist. Produce a JSON object describing the English word %q.

Respond with ONLY the JSON object, no commentary, using exactly these fields:
{
  "word": "the word as commonly written",
  "phonetic": "IPA transcription, e.g. /ˌserənˈdipədē/",
  "partOfSpeech": "noun, verb, adjective, ...",
  "definition": "a concise modern definition",
  "etymology": "two to four sentences tracing the word's origin and evolution",
  "roots": [{"term": "root form", "language": "source language", "meaning": "what the root meant"}],
  "examples": ["two or three short example sentences"],
  "synonyms": ["up to five close synonyms"],
  "funFact": "one surprising or memorable fact about the word"
}

Include two or three entries in "roots", ordered oldest first.`, word)
}

func summaryPrompt(word string) string {
	return fmt.Sprintf(`Write a single engaging paragraph (at most 120 words) telling the story of where the English word %q comes from. Cover the source language, the original meaning, and how the meaning shifted over time. Plain prose only, no headings, no lists, no markdown.`, word)
}

func imagePrompt(word string) string {
	return fmt.Sprintf(`Create a warm, hand-drawn style illustration that captures the historical origin of the word %q. Evoke the era and culture the word came from. No text or lettering in the image.`, word)
}
