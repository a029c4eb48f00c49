package services

import (
	"strings"
	"unicode"
)

// NormalizeKey turns a raw product title into the canonical matching key used
// by every join in the pipeline: lowercase, alphanumeric and spaces only,
// whitespace runs collapsed to a single space, trimmed.
//
// It is a total function — any input yields a string, possibly empty — and it
// is idempotent: NormalizeKey(NormalizeKey(s)) == NormalizeKey(s). Callers
// must not invent alternate normalizations, or cross-month matching silently
// breaks.
func NormalizeKey(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
