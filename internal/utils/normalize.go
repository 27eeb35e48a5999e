package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer folds an answer for comparison: lowercase, no diacritics,
// no surrounding whitespace. "Pérez " and "perez" normalize identically.
func NormalizeAnswer(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.TrimSpace(strings.ToLower(folded))
}

// StartsWithLetter reports whether answer begins with letter, ignoring case
// and diacritics. Empty answers never match.
func StartsWithLetter(answer, letter string) bool {
	a := NormalizeAnswer(answer)
	l := NormalizeAnswer(letter)
	if a == "" || l == "" {
		return false
	}
	return strings.HasPrefix(a, l)
}
