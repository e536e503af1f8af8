package decision

import (
	"encoding/json"
	"strings"
)

// ExtractJSON recovers a JSON object from raw oracle output. The chain:
// direct parse, strip markdown code fences and reparse, balanced-brace
// extraction of the first object, empty object. The bool result reports
// whether a real object was recovered; on false callers get "{}" and
// should treat the response as malformed.
func ExtractJSON(raw string) ([]byte, bool) {
	trimmed := strings.TrimSpace(raw)

	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), true
	}

	if unfenced := stripCodeFences(trimmed); unfenced != trimmed {
		if json.Valid([]byte(unfenced)) && strings.HasPrefix(unfenced, "{") {
			return []byte(unfenced), true
		}
		trimmed = unfenced
	}

	if obj := firstObject(trimmed); obj != "" && json.Valid([]byte(obj)) {
		return []byte(obj), true
	}

	return []byte("{}"), false
}

// stripCodeFences removes a surrounding ```json ... ``` block.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty)
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// firstObject extracts the first balanced {...} block, respecting string
// literals and escapes so braces inside reasoning text do not break it.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}
