package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishFold maps the Turkish letters that carry a diacritic (after
// lowercasing) to their ASCII base letter.
var turkishFold = map[rune]rune{
	'ı': 'i',
	'ş': 's',
	'ğ': 'g',
	'ü': 'u',
	'ö': 'o',
	'ç': 'c',
	'â': 'a',
	'î': 'i',
	'û': 'u',
}

func foldRune(r rune) rune {
	if base, ok := turkishFold[r]; ok {
		return base
	}
	return r
}

// NormalizeCity folds a city name for comparison: Turkish-aware lowercase,
// Turkish diacritics replaced by their base letter, surrounding space trimmed.
// For example, "İSTANBUL " -> "istanbul", "Şanlıurfa" -> "sanliurfa"
func NormalizeCity(city string) string {
	if city == "" {
		return city
	}

	// NFC first so decomposed input (s + U+0327) folds the same as "ş".
	// A Caser is stateful, so the chain is built per call.
	t := transform.Chain(norm.NFC, cases.Lower(language.Turkish), runes.Map(foldRune))
	normalized, _, err := transform.String(t, city)
	if err != nil {
		normalized = strings.ToLower(city)
	}

	return strings.TrimSpace(normalized)
}

// SameCity reports whether two city names are equal after normalization.
func SameCity(a, b string) bool {
	return NormalizeCity(a) == NormalizeCity(b)
}
