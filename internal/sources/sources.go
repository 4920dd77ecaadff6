// Copyright Awele Larsen, 2026. All rights reserved.

// Package sources implements the resolve step for every external data
// source in the pipeline. Each adapter maps a paper's identifying
// attributes (DOI and/or title) to a candidate PDF URL, reporting rate
// limiting as a distinct signal instead of an error. Network and parse
// failures never escape an adapter; they degrade to "no URL".
//
// API base URLs are package vars so tests can substitute httptest
// servers.
package sources

import (
	"regexp"
	"strings"
)

// titleQueryWords extracts up to max significant words from a title for
// word-based search queries, stripping punctuation that breaks query
// syntax and dropping words of one or two characters.
func titleQueryWords(title string, max int) []string {
	clean := queryPunct.ReplaceAllString(title, " ")
	var words []string
	for _, w := range strings.Fields(clean) {
		if len(w) > 2 {
			words = append(words, w)
		}
		if len(words) == max {
			break
		}
	}
	return words
}

var queryPunct = regexp.MustCompile(`["'()\[\]{}:;,]`)

// titlesMatch reports whether two titles are close enough to be the
// same paper: exact, containment, or at least 80% word overlap.
func titlesMatch(a, b string) bool {
	qa := strings.ToLower(strings.TrimSpace(a))
	qb := strings.ToLower(strings.TrimSpace(b))
	if qa == qb {
		return true
	}
	if qa != "" && qb != "" && (strings.Contains(qa, qb) || strings.Contains(qb, qa)) {
		return true
	}

	wa := strings.Fields(qa)
	wb := strings.Fields(qb)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	set := make(map[string]bool, len(wa))
	for _, w := range wa {
		set[w] = true
	}
	overlap := 0
	seen := make(map[string]bool, len(wb))
	for _, w := range wb {
		if set[w] && !seen[w] {
			overlap++
			seen[w] = true
		}
	}
	denom := len(uniq(wa))
	if n := len(uniq(wb)); n > denom {
		denom = n
	}
	return float64(overlap)/float64(denom) >= 0.8
}

func uniq(words []string) []string {
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// looksLikePDF reports whether a URL plausibly points at a PDF.
func looksLikePDF(url string) bool {
	l := strings.ToLower(url)
	return strings.HasSuffix(l, ".pdf") || strings.Contains(l, "/pdf/") || strings.Contains(l, "pdf")
}
