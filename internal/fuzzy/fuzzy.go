// Package fuzzy ranks near-miss names for "did you mean" hints.
// It is used for unknown long flags and unknown command names.
package fuzzy

import (
	"sort"
	"strings"
)

// Matcher finds candidates within a bounded edit distance
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher accepting up to maxDistance edits
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2, // single characters match everything
	}
}

// Match is a ranked candidate
type Match struct {
	Value    string
	Distance int
	Score    float64 // 0.0 to 1.0, higher is better
}

// FindBest returns the best candidate, or "" when nothing is close enough
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches returns every candidate within range, best first.
// Exact matches are skipped: the caller already knows they exist.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	in := []rune(strings.ToLower(input))
	if len(in) < m.minLength {
		return nil
	}

	var matches []Match
	for _, candidate := range candidates {
		c := []rune(strings.ToLower(candidate))
		if string(c) == string(in) {
			continue
		}
		d := m.distance(in, c)
		if d > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: d,
			Score:    score(in, c, d),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// score weighs edit distance with a shared prefix bonus, since flag typos
// usually happen at the end of the word
func score(a, b []rune, distance int) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}
	s := 1.0 - float64(distance)/float64(longest)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	if shortest := min(len(a), len(b)); shortest > 0 {
		s += float64(prefix) / float64(shortest) * 0.3
	}

	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	s += (1.0 - float64(diff)/float64(longest)) * 0.2

	return min(s, 1.0)
}

// distance is the Levenshtein distance between a and b, cut off at
// maxDistance+1 once the result is known to be out of range
func (m *Matcher) distance(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(b); i++ {
		cur[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			cur[j] = min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(a)]
}

// FindBestFlag finds the closest long flag name
func FindBestFlag(input string, flags []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, flags)
}

// FindBestCommand finds the closest command name
func FindBestCommand(input string, commands []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, commands)
}

// FindSuggestions returns up to limit candidates, best first
func FindSuggestions(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).FindMatches(input, candidates)
	out := make([]string, 0, min(len(matches), limit))
	for _, match := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, match.Value)
	}
	return out
}
