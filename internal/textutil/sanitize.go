package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxDescriptionLength bounds sanitized descriptions.
	MaxDescriptionLength = 50
	// FallbackDescription replaces descriptions that sanitize to nothing.
	FallbackDescription = "screenshot"
)

// SanitizeDescription converts free text into a filename-safe token.
// Accents are folded to ASCII, letters lowercased, whitespace and hyphens become
// underscores, and any other character outside [a-z0-9_] is dropped. Runs of
// underscores collapse to one, leading and trailing underscores are trimmed,
// and the result is cut to 50 characters. Empty results become "screenshot".
func SanitizeDescription(value string) string {
	folded := foldAccents(value)

	var b strings.Builder
	b.Grow(len(folded))
	lastUnderscore := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || r == '-' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "_")
	if len(out) > MaxDescriptionLength {
		out = strings.TrimRight(out[:MaxDescriptionLength], "_")
	}
	if out == "" {
		return FallbackDescription
	}
	return out
}

// Truncate returns at most limit bytes of an ASCII token, trimming a dangling
// separator left by the cut.
func Truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return strings.TrimRight(value[:limit], "_")
}

// TruncateRunes returns at most limit runes of value.
func TruncateRunes(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	count := 0
	for idx := range value {
		if count == limit {
			return value[:idx]
		}
		count++
	}
	return value
}

func foldAccents(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
