package catalog

import (
	"sort"
	"strings"
)

// DefaultMinScore is the similarity threshold for FindByName.
const DefaultMinScore = 75

// Match is a fuzzy name match.
type Match struct {
	Definition Definition
	Score      int
	Exact      bool
}

// FindByName finds the definition of kind whose display name best matches
// name. An exact (case-insensitive) match wins outright; otherwise the best
// match scoring at least DefaultMinScore is returned.
func FindByName(src Source, kind Kind, name string) (Match, bool) {
	matches := SearchByName(src, kind, name, DefaultMinScore, 1)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

// SearchByName returns matches sorted by score descending, then by hash.
// maxResults of 0 means unlimited.
func SearchByName(src Source, kind Kind, name string, minScore, maxResults int) []Match {
	query := normalizeQuery(name)
	if query == "" {
		return nil
	}

	results := make([]Match, 0)
	for _, d := range src.ListByKind(kind) {
		target := normalizeQuery(d.DisplayName)
		score := similarity(query, target)
		if score < minScore {
			continue
		}
		results = append(results, Match{Definition: d, Score: score, Exact: query == target})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Definition.Hash < results[j].Definition.Hash
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func normalizeQuery(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// similarity scores query against target from 0 to 100, combining exact,
// substring and edit-distance matching.
func similarity(query, target string) int {
	if query == target {
		return 100
	}
	if query == "" || target == "" {
		return 0
	}

	q, t := []rune(query), []rune(target)
	if strings.Contains(target, query) {
		return 80 + len(q)*20/len(t)
	}

	distance := levenshtein(q, t)
	maxLen := len(q)
	if len(t) > maxLen {
		maxLen = len(t)
	}
	return 100 - distance*100/maxLen
}

// levenshtein computes the edit distance using two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

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
