package rag

import (
	"strings"
	"unicode/utf8"
)

// Filter picks documents sharing enough words with a query.
type Filter struct {
	// MinWordLength is the shortest query word, in runes, that counts.
	MinWordLength int
	// Threshold is the share of query words a document must contain,
	// exclusive.
	Threshold float64
	// Limit caps the number of documents returned.
	Limit int
}

// DefaultFilter keeps words longer than three characters, requires more than
// 30% of them, and returns at most three documents.
func DefaultFilter() Filter {
	return Filter{MinWordLength: 4, Threshold: 0.3, Limit: 3}
}

func distinctWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		words = append(words, f)
	}
	return words
}

// QueryWords returns the distinct case-folded query words that are long
// enough to count.
func (f Filter) QueryWords(query string) []string {
	var out []string
	for _, w := range distinctWords(query) {
		if utf8.RuneCountInString(w) >= f.MinWordLength {
			out = append(out, w)
		}
	}
	return out
}

// Relevance is the share of query words found as a substring of some
// document word. An empty query-word set has zero relevance.
func Relevance(queryWords []string, doc Document) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	docWords := doc.words
	if docWords == nil {
		docWords = distinctWords(doc.Text)
	}

	matched := 0
	for _, qw := range queryWords {
		for _, dw := range docWords {
			if strings.Contains(dw, qw) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// SelectRelevant returns the texts of the first documents, in order, whose
// relevance exceeds the threshold.
func (f Filter) SelectRelevant(query string, docs []Document) []string {
	queryWords := f.QueryWords(query)
	if len(queryWords) == 0 || f.Limit <= 0 {
		return nil
	}

	var out []string
	for _, doc := range docs {
		if Relevance(queryWords, doc) > f.Threshold {
			out = append(out, doc.Text)
			if len(out) == f.Limit {
				break
			}
		}
	}
	return out
}

// SelectRelevant applies the filter to the store's documents.
func (s *DocumentStore) SelectRelevant(query string, f Filter) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.SelectRelevant(query, s.docs)
}
