package mention

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind groups catalogue entries by how their spans are treated.
type Kind int

const (
	// KindRole spans are office titles; a foreign nationality qualifier drops them.
	KindRole Kind = iota
	// KindReference spans name a member by constituency, name or chair.
	KindReference
	// KindDeictic spans point at someone through the debate itself
	// ("the Member opposite") and may be bound via speaker history.
	KindDeictic
)

// Deixis selects which earlier speaker a deictic span refers to.
type Deixis int

const (
	DeixisNone Deixis = iota
	// DeixisLastSpeaker binds to the most recent other speaker.
	DeixisLastSpeaker
	// DeixisSameParty binds to the most recent other speaker of the source's party.
	DeixisSameParty
	// DeixisOtherParty binds to the most recent speaker of a different party.
	DeixisOtherParty
)

// Pattern is one entry of the detection catalogue.
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
	Kind   Kind
	Deixis Deixis
	// Shrink lets a greedy place or portfolio span fall back to the longest
	// prefix ending before a comma or conjunction that resolves.
	Shrink bool
}

// Capitalized words, optionally joined by "and", "&", "of", "the" or commas.
const properNoun = `\p{Lu}[\p{L}\p{N}'’-]*(?:\.\p{Lu}[\p{L}\p{N}'’-]*)*\.?`
const properPhrase = properNoun + `(?:(?:\s+|\s+(?:and|&|of|the)\s+|,\s*)` + properNoun + `)*`

// The catalogue in precedence order. Overlapping matches keep the longest
// span; equal lengths keep the earlier entry, then the earlier start.
// Deictic forms precede honourable_name so "The Honourable Gentleman
// Opposite" is read as a deictic reference.
var defaultPatterns = []Pattern{
	{
		Name:   "deputy_prime_minister",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?deputy\s+prime\s+minister)\b`),
		Kind:   KindRole,
	},
	{
		Name:   "prime_minister",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?prime\s+minister)\b`),
		Kind:   KindRole,
	},
	{
		Name:   "leader_of_opposition",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?(?:leader\s+of\s+the\s+opposition|opposition\s+leader))\b`),
		Kind:   KindRole,
	},
	{
		Name:   "attorney_general",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?attorney\s+general)\b`),
		Kind:   KindRole,
	},
	{
		Name:   "minister_of",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?minister\s+(?:of|for)\s+(?:the\s+)?)` + properPhrase),
		Kind:   KindRole,
		Shrink: true,
	},
	{
		Name:   "member_for",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?(?:(?:right\s+)?(?:honou?rable|hon\.?)\s+)?member\s+(?:of\s+parliament\s+)?for\s+)` + properPhrase),
		Kind:   KindReference,
		Shrink: true,
	},
	{
		Name:   "member_who_spoke",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?(?:(?:right\s+)?honou?rable\s+)?(?:member|gentleman|lady|gentlewoman)\s+who\s+(?:has\s+)?(?:just\s+)?spok(?:e|en))\b`),
		Kind:   KindDeictic,
		Deixis: DeixisLastSpeaker,
	},
	{
		Name:   "previous_speaker",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?(?:previous|last)\s+speaker)\b`),
		Kind:   KindDeictic,
		Deixis: DeixisLastSpeaker,
	},
	{
		Name:   "member_opposite",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?(?:(?:right\s+)?honou?rable\s+)?(?:member|gentleman|lady|gentlewoman)\s+opposite)\b`),
		Kind:   KindDeictic,
		Deixis: DeixisOtherParty,
	},
	{
		Name:   "my_friend",
		Regexp: regexp.MustCompile(`\b(?i:my\s+(?:(?:right\s+)?honou?rable\s+|hon\.\s+|learned\s+)?(?:friend|colleague))\b`),
		Kind:   KindDeictic,
		Deixis: DeixisSameParty,
	},
	{
		Name:   "honourable_name",
		Regexp: regexp.MustCompile(`\b(?i:(?:the\s+)?(?:right\s+)?(?:honou?rable|hon\.?)\s+)` + properNoun + `(?:\s+` + properNoun + `){0,3}`),
		Kind:   KindReference,
	},
	{
		Name:   "speaker",
		Regexp: regexp.MustCompile(`\b(?i:mr\.?\s+speaker|madam\s+speaker|the\s+speaker)\b`),
		Kind:   KindReference,
	},
}

// DefaultPatterns returns a copy of the built-in catalogue.
func DefaultPatterns() []Pattern {
	return append([]Pattern(nil), defaultPatterns...)
}

// foreignDemonyms qualify a role title as another country's office.
var foreignDemonyms = map[string]bool{
	"american": true, "british": true, "english": true, "french": true,
	"german": true, "canadian": true, "jamaican": true, "haitian": true,
	"cuban": true, "trinidadian": true, "barbadian": true, "guyanese": true,
	"chinese": true, "japanese": true, "russian": true, "indian": true,
	"mexican": true, "dominican": true, "spanish": true, "irish": true,
	"scottish": true, "dutch": true, "italian": true, "norwegian": true,
	"swedish": true, "venezuelan": true, "brazilian": true, "nigerian": true,
	"kenyan": true, "ukrainian": true, "israeli": true, "korean": true,
	"australian": true, "belizean": true, "grenadian": true, "antiguan": true,
	"vincentian": true, "turkish": true, "greek": true, "polish": true,
	"asian": true, "african": true, "european": true, "caribbean": true,
	"colombian": true, "argentinian": true, "argentine": true, "chilean": true,
	"peruvian": true, "ecuadorian": true, "egyptian": true, "ghanaian": true,
	"ethiopian": true, "iranian": true, "iraqi": true, "syrian": true,
	"saudi": true, "pakistani": true, "vietnamese": true, "taiwanese": true,
	"portuguese": true, "austrian": true, "belgian": true, "swiss": true,
	"danish": true, "finnish": true, "hungarian": true, "romanian": true,
	"panamanian": true, "honduran": true, "guatemalan": true, "rican": true,
	"surinamese": true, "lucian": true, "kittitian": true,
	"us": true, "uk": true,
}

// isForeignQualifier reports whether word is a nationality adjective other than local.
func isForeignQualifier(word, local string) bool {
	w := strings.ToLower(word)
	if w == "" || w == strings.ToLower(local) {
		return false
	}
	return foreignDemonyms[w]
}

// precedingWord returns the letters of the word immediately before offset.
func precedingWord(text string, offset int) string {
	before := strings.TrimRightFunc(text[:offset], unicode.IsSpace)
	end := len(before)
	start := 0
	if i := strings.LastIndexFunc(before, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		_, size := utf8.DecodeRuneInString(before[i:])
		start = i + size
	}
	if start >= end {
		return ""
	}
	return before[start:end]
}
