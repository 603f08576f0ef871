// Package aliaskey holds the canonical key form shared by roster validation,
// the alias index and curation, so every layer agrees on when two spellings
// name the same thing.
package aliaskey

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Normalize is the single canonical form used for every index key and lookup:
// diacritics removed, Unicode case-folded, curly apostrophes straightened,
// inner whitespace collapsed and surrounding punctuation trimmed.
//
//	Normalize("  The Hon.  Glenys Hanna-Martín, ") == "the hon. glenys hanna-martin"
func Normalize(s string) string {
	// Transformers and Casers carry state, so each call builds its own
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)
	folded = apostrophes.Replace(folded)
	folded = strings.Join(strings.Fields(folded), " ")
	return strings.TrimFunc(folded, isEdgeRune)
}

func isEdgeRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Equal reports whether a and b normalize to the same non-empty key.
func Equal(a, b string) bool {
	ka := Normalize(a)
	return ka != "" && ka == Normalize(b)
}

// PortfolioLiterals returns the raw forms a portfolio is indexed under:
// the title and short title, each plain and with a leading "the ".
func PortfolioLiterals(title, shortTitle string) []string {
	var out []string
	for _, t := range []string{title, shortTitle} {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t, "the "+t)
	}
	return out
}

// PortfolioKeys returns the distinct normalized keys of PortfolioLiterals.
func PortfolioKeys(title, shortTitle string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, l := range PortfolioLiterals(title, shortTitle) {
		k := Normalize(l)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
