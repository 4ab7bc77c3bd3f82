package core

import (
	"strings"
	"unicode"
)

// Slugify normalizes a room name: lowercase, characters outside
// [a-z0-9], whitespace and '-' dropped, whitespace runs turned into '-',
// repeated '-' collapsed, leading and trailing '-' trimmed.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}
