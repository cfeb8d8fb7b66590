package dedup

import (
	"net/url"
	"strings"
	"unicode"
)

// titleSimilarity computes a normalized string-distance ratio between
// two normalized titles: 1 − levenshtein/maxLen, in [0, 1].
func titleSimilarity(a, b string) float64 {
	a, b = normalizeTitle(a), normalizeTitle(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming formulation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// normalizeTitle lowercases, strips punctuation, and collapses
// whitespace so cosmetic differences do not defeat exact hashing or
// distance scoring.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// urlSimilarity scores two URLs: 1.0 when identical, at least 0.6 when
// they share a domain and have overlapping path segments, otherwise 0.
func urlSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	da, pa := splitURL(a)
	db, pb := splitURL(b)
	if da == "" || db == "" || da != db {
		return 0
	}
	overlap := pathOverlap(pa, pb)
	if overlap == 0 {
		return 0
	}
	return 0.6 + 0.4*overlap
}

// splitURL returns the lowercased host (minus www) and path segments.
func splitURL(rawURL string) (string, []string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", nil
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var segments []string
	for _, seg := range strings.Split(strings.ToLower(u.Path), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return host, segments
}

// pathOverlap is the Jaccard overlap of two path-segment sets.
func pathOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		if set[s] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// domainSimilarity is 1 when both URLs share a domain, else 0.
func domainSimilarity(a, b string) float64 {
	da, _ := splitURL(a)
	db, _ := splitURL(b)
	if da != "" && da == db {
		return 1.0
	}
	return 0
}

// tagSimilarity is the Jaccard overlap of two tag sets, case-insensitive.
// Two empty sets count as fully overlapping.
func tagSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	other := make(map[string]bool, len(b))
	for _, t := range b {
		other[strings.ToLower(strings.TrimSpace(t))] = true
	}
	inter := 0
	for t := range other {
		if set[t] {
			inter++
		}
	}
	union := len(set) + len(other) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
