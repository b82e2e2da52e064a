package export

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ligatures have no decomposition, so they are spelled out before stripping marks.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "OE",
	"æ", "ae", "Æ", "AE",
	"ß", "ss",
	"€", "EUR",
	"’", "'",
)

// Transliterate replaces accented letters with their closest ASCII spelling:
// "Février" becomes "Fevrier", "Trésorerie" becomes "Tresorerie".
func Transliterate(s string) string {
	s = ligatures.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FileName turns a label into a portable, lower-case file name stem.
func FileName(s string) string {
	s = strings.ToLower(Transliterate(s))
	var b strings.Builder
	lastSep := true
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastSep = false
		case !lastSep:
			b.WriteByte('_')
			lastSep = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
