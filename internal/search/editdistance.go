package search

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// EditDistanceThreshold is the minimum normalized Damerau-Levenshtein
// similarity for the edit-distance gate.
const EditDistanceThreshold = 0.80

// EditSimilarity returns 1 - distance/maxLen over case-folded runes, in
// [0, 1]. Two empty strings are identical.
func EditSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	d := edlib.DamerauLevenshteinDistance(a, b)
	return 1 - float64(d)/float64(maxLen)
}
