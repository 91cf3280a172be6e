package account

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishFold maps Turkish letters to their closest ASCII letter.
var turkishFold = strings.NewReplacer(
	"ı", "i", "İ", "i",
	"ğ", "g", "Ğ", "g",
	"ü", "u", "Ü", "u",
	"ş", "s", "Ş", "s",
	"ö", "o", "Ö", "o",
	"ç", "c", "Ç", "c",
)

// NormalizeHandle returns the comparison key for a game handle.
//
// Two handles name the same player if their keys are equal. The key is
// lowercase, has Turkish letters folded to ASCII, has every combining mark
// removed and contains no whitespace.
func NormalizeHandle(handle string) string {
	s := strings.TrimSpace(handle)
	if s == "" {
		return ""
	}

	// Fold before lowercasing too: Go lowercases "İ" to "i̇" (i + U+0307).
	s = turkishFold.Replace(s)
	s = strings.ToLower(s)
	s = turkishFold.Replace(s)

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// SameHandle reports whether two handles normalize to the same key.
func SameHandle(a, b string) bool {
	na := NormalizeHandle(a)
	return na != "" && na == NormalizeHandle(b)
}
