package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Generic facility words that carry no identity, longest first so that
// "hospital center" is removed before "hospital".
var stopPhrases = regexp.MustCompile(`\b(?:hospital center|medical center|healthcare|children's|inpatient|university|regional|memorial|hospital|women's|medical|health|center|clinic|the)\b`)

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// foldAccents maps "Señora" to "Senora".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func prepare(s string) string {
	s = strings.ToLower(foldAccents(s))
	return strings.NewReplacer("\u2019", "'", "\u2018", "'").Replace(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeName reduces a facility name to its identifying words.
func normalizeName(s string) string {
	s = stopPhrases.ReplaceAllString(prepare(s), " ")
	return collapse(nonAlnum.ReplaceAllString(s, " "))
}

// nameTokens splits a normalized name into words longer than two characters.
func nameTokens(normalized string) []string {
	var out []string
	for _, f := range strings.Fields(normalized) {
		if len([]rune(f)) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// dedupKey identifies the same facility across sources: case, accents and
// punctuation are ignored but every word is kept.
func dedupKey(name string) string {
	return collapse(nonAlnum.ReplaceAllString(prepare(name), " "))
}
