package textutil

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultKeywordCount is used when a caller asks for zero or fewer keywords.
const DefaultKeywordCount = 10

// wordRE tokenizes candidate keywords: ASCII-letter runs of three or more.
var wordRE = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// stopWords are common function words excluded from keyword ranking. The
// separate length filter in Keywords drops every remaining 3-letter token,
// so results are always 4+ characters.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"day": true, "get": true, "has": true, "him": true, "his": true,
	"how": true, "its": true, "may": true, "new": true, "now": true,
	"old": true, "see": true, "two": true, "who": true, "boy": true,
	"did": true, "she": true, "use": true, "way": true, "been": true,
	"call": true, "came": true, "each": true, "find": true, "have": true,
	"here": true, "just": true, "like": true, "long": true, "look": true,
	"made": true, "make": true, "many": true, "more": true, "most": true,
	"move": true, "much": true, "must": true, "name": true, "need": true,
	"only": true, "over": true, "said": true, "same": true, "some": true,
	"take": true, "than": true, "that": true, "this": true, "time": true,
	"very": true, "well": true, "were": true, "what": true, "when": true,
	"will": true, "with": true, "word": true, "work": true, "your": true,
}

// Keywords returns the topN most frequent content words in text, lowercased.
// Stop words and tokens of three or fewer characters never appear. Ranking
// is by frequency descending; ties break by first appearance in the text,
// which keeps repeated runs deterministic.
func Keywords(text string, topN int) []string {
	if topN <= 0 {
		topN = DefaultKeywordCount
	}

	type wordCount struct {
		word  string
		count int
	}

	counts := make(map[string]*wordCount)
	// order holds entries in first-appearance order; the stable sort below
	// preserves that order on count ties.
	order := []*wordCount{}
	for _, w := range wordRE.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 3 || stopWords[w] {
			continue
		}
		e, ok := counts[w]
		if !ok {
			e = &wordCount{word: w}
			counts[w] = e
			order = append(order, e)
		}
		e.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	if len(order) > topN {
		order = order[:topN]
	}
	out := make([]string, len(order))
	for i, e := range order {
		out[i] = e.word
	}
	return out
}
