// Package slug canonicalizes human-entered prompt names into the identifiers
// used as storage keys and as nodes of the reference graph.
package slug

import (
	"strings"
	"unicode"

	gslug "github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical slug for name.
//
// The name is NFKD-decomposed and combining marks are dropped, so "é"
// becomes "e". Any other rune that is not an ASCII letter, digit,
// whitespace, '_' or '-' is removed without a separator: "Q&A" is "qa" and
// "Straße" is "strae". Whitespace, '_' and '-' runs become a single hyphen,
// everything is lowercased and leading or trailing hyphens are dropped.
// Normalize is idempotent.
func Normalize(name string) string {
	s := gslug.MakeLang(asciiWords(name), "en")
	if !strings.ContainsRune(s, '_') {
		return s
	}
	// gosimple keeps underscores; fold them into the hyphen grouping.
	var sb strings.Builder
	sb.Grow(len(s))
	lastHyphen := false
	for _, r := range s {
		if r == '_' || r == '-' {
			if !lastHyphen {
				sb.WriteByte('-')
			}
			lastHyphen = true
			continue
		}
		sb.WriteRune(r)
		lastHyphen = false
	}
	return strings.Trim(sb.String(), "-")
}

// asciiWords keeps only the runes that survive into a slug, so gosimple's
// transliteration and symbol substitution never apply.
func asciiWords(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
		case r == '_' || r == '-':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// Equal reports whether two names refer to the same slug.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
