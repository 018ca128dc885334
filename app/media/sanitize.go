package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSegmentLength = 120

// SanitizeSegment turns a title into a single safe path segment. Accents are
// folded to their base letters, then everything except ASCII letters, digits,
// space, hyphen and underscore is dropped. The result is never empty and never
// a relative path element.
func SanitizeSegment(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	segment := strings.Join(strings.Fields(b.String()), " ")
	if len(segment) > maxSegmentLength {
		segment = strings.TrimSpace(segment[:maxSegmentLength])
	}
	if segment == "" {
		return "untitled"
	}
	return segment
}
