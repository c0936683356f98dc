package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case folded form of s. Stores keep a folded copy
// of searchable text so that lowered LIKE predicates agree with Matcher.
func Fold(s string) string {
	// Caser values carry state; build one per call.
	return cases.Fold().String(s)
}

// Matcher is a normalized free-text term: case-insensitive literal
// substring containment, no tokenization or ranking.
type Matcher struct {
	needle string
}

// BuildMatcher trims and folds raw. An empty result matches everything.
func BuildMatcher(raw string) Matcher {
	return Matcher{needle: Fold(strings.TrimSpace(raw))}
}

// MatchesAll reports whether the matcher imposes no condition.
func (m Matcher) MatchesAll() bool {
	return m.needle == ""
}

// Needle returns the folded search term.
func (m Matcher) Needle() string {
	return m.needle
}

// Match reports whether s contains the term.
func (m Matcher) Match(s string) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(Fold(s), m.needle)
}
