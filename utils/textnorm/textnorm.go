// Package textnorm folds titles into a comparable form so that catalog search and release
// matching ignore case, diacritics, punctuation and transliteration differences.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

var punctuation = strings.NewReplacer(
	"–", "-", "—", "-", "−", "-",
	"’", "'", "：", ":", "…", " ",
	"&", " and ",
)

// Fold returns the search key for value: transliterated to ASCII, case folded, with
// punctuation reduced to single spaces.
func Fold(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	value = punctuation.Replace(value)
	ascii := unidecode.Unidecode(value)
	if strings.TrimSpace(ascii) == "" {
		// scripts unidecode has no table for fall back to plain case folding
		ascii = value
	}
	ascii = folder.String(ascii)

	var b strings.Builder
	b.Grow(len(ascii))
	for _, r := range ascii {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Contains reports whether the folded query occurs in the folded title. An empty query
// matches nothing.
func Contains(title, query string) bool {
	q := Fold(query)
	if q == "" {
		return false
	}
	return strings.Contains(Fold(title), q)
}

// Similarity scores two titles between 0 (unrelated) and 1 (same after folding) using
// edit distance over the folded forms.
func Similarity(a, b string) float64 {
	a, b = Fold(a), Fold(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance computed with two rolling rows.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
