package extraction

import "strings"

// StripFences removes markdown code fences the model sometimes wraps its
// JSON payload in. The stripping is deterministic: a ```json block wins
// over a bare ``` block, and text without fences passes through untouched.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(s[start:], "```"); end >= 0 {
			return strings.TrimSpace(s[start : start+end])
		}
		return strings.TrimSpace(s[start:])
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.Index(s[start:], "```"); end >= 0 {
			return strings.TrimSpace(s[start : start+end])
		}
		return strings.TrimSpace(s[start:])
	}

	return s
}

// truncateRunes bounds text to at most max runes before it is sent to the
// provider. Invoices front-load the useful fields, so cutting the tail is
// safe.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
