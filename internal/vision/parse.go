package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of a model reply, trying in order:
// raw parse, fenced-code-block extraction, then brace-matched substring
// extraction. Models routinely wrap JSON in prose or code fences; all three
// forms must parse identically.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > 0 && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	if fenced, ok := extractFenced(trimmed); ok && json.Valid([]byte(fenced)) {
		return fenced, nil
	}

	if braced, ok := extractBraced(trimmed); ok && json.Valid([]byte(braced)) {
		return braced, nil
	}

	return "", fmt.Errorf("no JSON object found in reply (%d bytes)", len(raw))
}

// decodeReply extracts and unmarshals a JSON reply into v.
func decodeReply(raw string, v any) error {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode reply JSON: %w", err)
	}
	return nil
}

// extractFenced returns the body of the first ``` fenced block, tolerating a
// language tag after the opening fence.
func extractFenced(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the language tag line (e.g. "json").
		firstLine := strings.TrimSpace(body[:nl])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}") {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// extractBraced returns the first balanced {...} substring, tracking string
// literals so braces inside quoted values don't break the match.
func extractBraced(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
