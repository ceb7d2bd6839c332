// Package filter implements the keyword predicate selecting digest papers.
//
// A keyword group matches when every term occurs in the paper's title or
// abstract (case-insensitive substring). Groups combine with OR: a paper is
// kept when any single group matches. An empty group list matches nothing.
package filter

import (
	"strings"

	"ArxivDigest/internal/domain"
)

// Matches reports whether the paper satisfies any keyword group.
func Matches(paper domain.Paper, groups [][]string) bool {
	if len(groups) == 0 {
		return false
	}

	haystack := strings.ToLower(paper.Title + "\n" + paper.Abstract)

	for _, group := range groups {
		if matchesGroup(haystack, group) {
			return true
		}
	}
	return false
}

func matchesGroup(haystack string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		if !strings.Contains(haystack, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// Apply returns the papers matching any group, preserving input order. Each
// paper appears at most once even when several groups match it.
func Apply(papers []domain.Paper, groups [][]string) []domain.Paper {
	matched := make([]domain.Paper, 0, len(papers))
	for _, paper := range papers {
		if Matches(paper, groups) {
			matched = append(matched, paper)
		}
	}
	return matched
}
