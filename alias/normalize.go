package alias

import "github.com/teranos/hansard/internal/aliaskey"

// Normalize is the canonical form of every index key and lookup. Roster
// validation and curation use the same form, so a title or alias that the
// index would merge is also treated as one by them.
//
//	Normalize("  The Hon.  Glenys Hanna-Martín, ") == "the hon. glenys hanna-martin"
func Normalize(s string) string {
	return aliaskey.Normalize(s)
}
