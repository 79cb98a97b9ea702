package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Lower folds s to lowercase without locale specific rules, so the Turkish
// dotted I and similar cases map the same way on every machine.
// A cases.Caser is stateful, so a fresh one is built per call.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// LowerTokens lowercases every token.
func LowerTokens(tokens []string) []string {
	c := cases.Lower(language.Und)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = c.String(t)
	}
	return out
}

// RemovePunct strips Unicode punctuation.
func RemovePunct(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsPunct(r) {
				return -1
			}
			return r
		}, t)
		if clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// RemoveDiacritics decomposes and strips combining marks.
func RemoveDiacritics(s string) string {
	t := norm.NFD.String(s)
	return norm.NFC.String(strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, t))
}

// NormalizeTokens applies lowercase, diacritics removal, and punctuation stripping.
func NormalizeTokens(tokens []string) []string {
	toks := LowerTokens(tokens)
	var out []string
	for _, t := range toks {
		t = RemoveDiacritics(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return RemovePunct(out)
}
