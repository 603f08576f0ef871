package resolver

import (
	"sort"
	"strings"
)

// TokenSortRatio scores two strings in [0, 1] independent of word order:
// tokens are sorted and rejoined, then compared by 2*LCS/(len(a)+len(b))
// over runes. Both inputs are expected to be normalized already.
func TokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) []rune {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return []rune(strings.Join(tokens, " "))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return float64(2*lcsLength(a, b)) / float64(total)
}

// lcsLength is the longest common subsequence length, two rows at a time.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
