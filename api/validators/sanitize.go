package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the length, cutting on
// a rune boundary so multi-byte input is never split mid-character.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return string(runes[:maxLen])
}
