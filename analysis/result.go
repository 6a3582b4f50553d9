// Package analysis holds the schema-free result of one language-model
// extraction call. The model decides the shape, so results are either a parsed
// JSON mapping or a raw-text fallback; the two variants stay distinguishable.
package analysis

import (
	"encoding/json"
	"strings"
)

// Result is the structured-or-raw output of an extraction call.
//
// When the completion output parsed as JSON, Fields holds the decoded mapping
// and Fallback is false. Otherwise Fields holds the raw text wrapped under the
// agent's fallback key and Fallback is true. Fields is never nil.
type Result struct {
	Fields   map[string]any
	Fallback bool
}

// Decode parses a completion response as a JSON object. Markdown code fences
// around the payload are tolerated. On any parse failure the raw text is
// wrapped under fallbackKey; decoding never fails.
func Decode(text, fallbackKey string) Result {
	candidate := stripCodeFence(strings.TrimSpace(text))

	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err == nil && fields != nil {
		return Result{Fields: fields}
	}

	return Result{
		Fields:   map[string]any{fallbackKey: text},
		Fallback: true,
	}
}

// stripCodeFence removes a surrounding ```json ... ``` block if present.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	trimmed := strings.TrimPrefix(text, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// Empty reports whether a decoded value counts as absent for orchestration:
// nil, an empty mapping, or an empty string.
func Empty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	case Result:
		return len(v.Fields) == 0
	default:
		return false
	}
}
