package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a game title for comparison: accents and
// diacritics removed, lowercased, whitespace collapsed.
// Example: "Pokémon  Émeraude" -> "pokemon emeraude".
func NormalizeName(name string) string {
	if name == "" {
		return name
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, _ := transform.String(t, name)

	normalized = strings.ToLower(normalized)
	return strings.Join(strings.Fields(normalized), " ")
}

// SameGameName reports whether two titles refer to the same game after
// normalization, used for duplicate detection on free-text requests.
func SameGameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
