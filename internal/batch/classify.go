package batch

import (
	"regexp"
	"strings"

	"personlens/internal/providers"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// phoneChars are the characters allowed in a phone-shaped input besides
// digits.
const phoneChars = "+-() ."

// ClassifyInput maps a raw search input to the provider search kind it should
// be dispatched as. Anything that is neither email- nor phone-shaped is
// treated as a name.
func ClassifyInput(input string) providers.SearchKind {
	trimmed := strings.TrimSpace(input)
	if emailPattern.MatchString(trimmed) {
		return providers.KindEmail
	}
	if looksLikePhone(trimmed) {
		return providers.KindPhone
	}
	return providers.KindName
}

func looksLikePhone(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(phoneChars, r):
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// SearchParams builds the provider query parameters for a classified input.
func SearchParams(kind providers.SearchKind, input string) map[string]string {
	return map[string]string{string(kind): strings.TrimSpace(input)}
}
