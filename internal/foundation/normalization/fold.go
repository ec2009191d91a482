package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks, so "Sección" becomes "Seccion" and
// "pequeño" becomes "pequeno".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold trims, lower-cases and strips accents. It is the comparison form for
// level labels, tag names and enum values.
func Fold(s string) string {
	return StripAccents(strings.ToLower(strings.TrimSpace(s)))
}

const maxLabelLength = 30

// Label derives a cross-reference label: folded text with every character
// outside [a-z0-9] replaced by an underscore, cut to 30 bytes.
func Label(s string) string {
	folded := StripAccents(strings.ToLower(s))
	var b strings.Builder
	for _, r := range folded {
		if b.Len() >= maxLabelLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
