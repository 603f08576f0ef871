// Package dialect normalizes Bahamian Creole spellings of parliamentary
// speech toward the standard forms used in the roster: TH-stopped function
// words ("da memba" -> "the member"), vowel-shifted place names
// ("Englaston" -> "Englerston") and honorific prefixes.
//
// Replacement is whole-word only. A token is never rewritten because it
// contains a table key, so "Davis" and "dissent" are left alone.
package dialect

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/teranos/hansard/errors"
)

//go:embed dialect.toml
var defaultTableTOML []byte

// Table holds the word substitutions and prefixes used for normalization.
// Immutable after loading; safe for concurrent use.
type Table struct {
	THStopping  map[string]string `toml:"th_stopping"`
	VowelShifts map[string]string `toml:"vowel_shifts"`
	Honorifics  []string          `toml:"honorifics"`
	Articles    []string          `toml:"articles"`
}

var (
	cachedDefault *Table
	defaultOnce   sync.Once
	defaultErr    error
)

// Default returns the built-in table.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		cachedDefault, defaultErr = Parse(defaultTableTOML)
		if defaultErr != nil {
			defaultErr = errors.Wrap(defaultErr, "embedded dialect table")
		}
	})
	return cachedDefault, defaultErr
}

// MustDefault returns the built-in table, panicking if it is malformed.
func MustDefault() *Table {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Parse decodes a TOML table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if _, err := toml.Decode(string(data), &t); err != nil {
		return nil, errors.Wrap(err, "decode dialect table")
	}
	t.normalize()
	return &t, nil
}

// LoadFile reads a TOML table and layers it over the built-in one:
// map entries are added or replaced, honorifics and articles are appended.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read dialect table %s", path)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "dialect table %s", path)
	}
	base, err := Default()
	if err != nil {
		return nil, err
	}
	return base.merge(override), nil
}

func (t *Table) normalize() {
	t.THStopping = lowerKeys(t.THStopping)
	t.VowelShifts = lowerKeys(t.VowelShifts)
	t.Honorifics = lowerAll(t.Honorifics)
	t.Articles = lowerAll(t.Articles)
	// Longest prefix first so "the honourable" wins over "the"
	sort.SliceStable(t.Honorifics, func(i, j int) bool {
		return len(t.Honorifics[i]) > len(t.Honorifics[j])
	})
}

func (t *Table) merge(o *Table) *Table {
	out := &Table{
		THStopping:  make(map[string]string, len(t.THStopping)+len(o.THStopping)),
		VowelShifts: make(map[string]string, len(t.VowelShifts)+len(o.VowelShifts)),
		Honorifics:  append(append([]string(nil), t.Honorifics...), o.Honorifics...),
		Articles:    append(append([]string(nil), t.Articles...), o.Articles...),
	}
	for _, m := range []map[string]string{t.THStopping, o.THStopping} {
		for k, v := range m {
			out.THStopping[k] = v
		}
	}
	for _, m := range []map[string]string{t.VowelShifts, o.VowelShifts} {
		for k, v := range m {
			out.VowelShifts[k] = v
		}
	}
	out.normalize()
	return out
}

// Normalize rewrites dialect words in text, preserving surrounding
// punctuation and the capitalization of each replaced word.
func (t *Table) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	words := strings.Fields(text)
	for i, w := range words {
		lead, core, trail := splitPunct(w)
		if core == "" {
			continue
		}
		key := strings.ToLower(core)
		repl, ok := t.THStopping[key]
		if !ok {
			repl, ok = t.VowelShifts[key]
		}
		if !ok {
			continue
		}
		words[i] = lead + matchCase(core, repl) + trail
	}
	return strings.Join(words, " ")
}

// StripHonorific removes one leading honorific ("The Honourable", "Hon.",
// "my honourable friend") from text. The match is case-insensitive and must
// end on a word boundary. Text that is only an honorific is returned as is.
func (t *Table) StripHonorific(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, h := range t.Honorifics {
		if rest, ok := cutWordPrefix(trimmed, lower, h); ok {
			return rest
		}
	}
	return trimmed
}

// StripArticle removes one leading article ("the", "da").
func (t *Table) StripArticle(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, a := range t.Articles {
		if rest, ok := cutWordPrefix(trimmed, lower, a); ok {
			return rest
		}
	}
	return trimmed
}

// Variants returns the distinct rewrites of text in the order the resolver
// tries them: dialect-normalized, then honorific-stripped, then article-stripped.
// text itself is never included.
func (t *Table) Variants(text string) []string {
	normalized := t.Normalize(text)
	stripped := t.StripHonorific(normalized)
	bare := t.StripArticle(stripped)

	var out []string
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(text)): true}
	for _, v := range []string{normalized, stripped, bare} {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Normalize applies the built-in table.
func Normalize(text string) string {
	return MustDefault().Normalize(text)
}

// StripHonorific applies the built-in honorific list.
func StripHonorific(text string) string {
	return MustDefault().StripHonorific(text)
}

// StripArticle applies the built-in article list.
func StripArticle(text string) string {
	return MustDefault().StripArticle(text)
}

func cutWordPrefix(original, lower, prefix string) (string, bool) {
	if !strings.HasPrefix(lower, prefix) {
		return "", false
	}
	rest := original[len(prefix):]
	if rest == "" {
		return "", false
	}
	// Prefixes ending in "." may be glued to the name ("Hon.Davis")
	if !strings.HasSuffix(prefix, ".") {
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsSpace(r) {
			return "", false
		}
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	return rest, true
}

// splitPunct separates leading and trailing punctuation from a token.
// Apostrophes inside the word are kept ("memba's").
func splitPunct(w string) (lead, core, trail string) {
	start := strings.IndexFunc(w, isWordRune)
	if start < 0 {
		return w, "", ""
	}
	end := strings.LastIndexFunc(w, isWordRune)
	_, size := utf8.DecodeRuneInString(w[end:])
	return w[:start], w[start : end+size], w[end+size:]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func matchCase(original, repl string) string {
	switch {
	case original == strings.ToUpper(original) && utf8.RuneCountInString(original) > 1:
		return strings.ToUpper(repl)
	case unicode.IsUpper(firstRune(original)):
		r, size := utf8.DecodeRuneInString(repl)
		return string(unicode.ToUpper(r)) + repl[size:]
	default:
		return repl
	}
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
