package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeModelJSON parses model output into target, tolerating markdown
// code fences and leading prose around the JSON document.
func DecodeModelJSON(raw string, target any) error {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}
	cleaned = stripCodeFence(cleaned)
	if start := strings.IndexAny(cleaned, "{["); start > 0 {
		cleaned = cleaned[start:]
	}
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("parse json: %w (payload=%s)", err, summarizeSnippet(cleaned))
	}
	return nil
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		// Drop the language tag line (```json).
		trimmed = trimmed[newline+1:]
	}
	if end := strings.LastIndex(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}

func summarizeSnippet(raw string) string {
	const limit = 160
	collapsed := strings.Join(strings.Fields(raw), " ")
	if len(collapsed) <= limit {
		return collapsed
	}
	return collapsed[:limit] + "..."
}
