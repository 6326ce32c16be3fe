package calculator

import "strings"

// CleanResponse removes markdown code fences, with or without a json tag, and surrounding whitespace.
func CleanResponse(raw string) string {
	out := strings.ReplaceAll(raw, "```json", "")
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
