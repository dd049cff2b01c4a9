package metadata

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	scoreNoMatch      = 1000
	scoreYearMismatch = 500
)

// candidate is a search hit reduced to what ranking needs.
type candidate struct {
	Title string
	Year  string
}

// bestMatch returns the index and score of the candidate that best matches
// title and year, or -1 when there are no candidates. Lower scores win; ties
// keep API order.
func bestMatch(title, year string, candidates []candidate) (int, int) {
	best, bestScore := -1, 0
	for i, c := range candidates {
		score := matchScore(title, c.Title, i)
		if year != "" && c.Year != "" && year != c.Year {
			score += scoreYearMismatch
		}
		if best == -1 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

func matchScore(query, title string, index int) int {
	q, t := normalizeTitle(query), normalizeTitle(title)
	if q == t {
		return 0
	}
	if d := fuzzy.RankMatchNormalizedFold(q, t); d >= 0 {
		return 1 + d
	}
	if d := fuzzy.RankMatchNormalizedFold(t, q); d >= 0 {
		return 1 + d
	}
	return scoreNoMatch + index
}

// normalizeTitle lower-cases, drops punctuation, and collapses whitespace.
func normalizeTitle(title string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == ':' || r == '_':
			space = true
		}
	}
	return b.String()
}

// yearOf returns the first four characters of a date such as "2010-07-15" or "2010–2014".
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}
