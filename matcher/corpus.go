package matcher

import (
	_ "embed"
	"math"
	"strings"
	"sync"

	"smart-response/config"
	apperrors "smart-response/errors"
)

//go:embed stopwords.txt
var stopwordList string

var stopwords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(stopwordList) {
		set[w] = struct{}{}
	}
	return set
}()

// Corpus scores how strongly a query's terms weigh in a document, relative to
// the documents the corpus has seen.
type Corpus interface {
	Measure(query, document []string) float64
}

// NewCorpus builds the corpus for a configured mode.
func NewCorpus(mode string, maxDocuments int) (Corpus, error) {
	switch mode {
	case "", config.CorpusModePair:
		return PairCorpus{}, nil
	case config.CorpusModeCumulative:
		return NewCumulativeCorpus(maxDocuments), nil
	default:
		return nil, apperrors.WrapErrorf(apperrors.ErrConfiguration, "unknown corpus mode %q", mode)
	}
}

// termDoc holds term counts with stopwords removed.
type termDoc map[string]int

func newTermDoc(tokens []string) termDoc {
	doc := make(termDoc, len(tokens))
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		doc[tok]++
	}
	return doc
}

// idf is 1 + ln(N / (1 + df)).
func idf(documents, withTerm int) float64 {
	return 1 + math.Log(float64(documents)/float64(1+withTerm))
}

// measure sums tf·idf over every query token, repeats included.
func measure(query []string, target termDoc, documents int, df func(string) int) float64 {
	var total float64
	for _, term := range query {
		tf := target[term]
		if tf == 0 {
			continue
		}
		total += float64(tf) * idf(documents, df(term))
	}
	return total
}

// PairCorpus scores each (query, document) pair against a fresh two-document
// corpus. It is stateless and safe for concurrent use.
type PairCorpus struct{}

func (PairCorpus) Measure(query, document []string) float64 {
	q := newTermDoc(query)
	d := newTermDoc(document)
	return measure(query, d, 2, func(term string) int {
		n := 0
		if q[term] > 0 {
			n++
		}
		if d[term] > 0 {
			n++
		}
		return n
	})
}

// CumulativeCorpus keeps every query and document it has measured, so term
// weights drift as traffic accumulates. The oldest documents are dropped once
// maxDocuments is exceeded.
type CumulativeCorpus struct {
	mu           sync.Mutex
	docs         []termDoc
	df           map[string]int
	maxDocuments int
}

func NewCumulativeCorpus(maxDocuments int) *CumulativeCorpus {
	if maxDocuments < 2 {
		maxDocuments = 2
	}
	return &CumulativeCorpus{
		df:           make(map[string]int),
		maxDocuments: maxDocuments,
	}
}

// Measure appends both texts, then measures the query against the document
// that was just added.
func (c *CumulativeCorpus) Measure(query, document []string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.add(newTermDoc(query))
	target := newTermDoc(document)
	c.add(target)

	return measure(query, target, len(c.docs), func(term string) int { return c.df[term] })
}

// Len returns the number of documents currently held.
func (c *CumulativeCorpus) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *CumulativeCorpus) add(doc termDoc) {
	c.docs = append(c.docs, doc)
	for term := range doc {
		c.df[term]++
	}
	for len(c.docs) > c.maxDocuments {
		oldest := c.docs[0]
		c.docs[0] = nil
		c.docs = c.docs[1:]
		for term := range oldest {
			if c.df[term] <= 1 {
				delete(c.df, term)
			} else {
				c.df[term]--
			}
		}
	}
}
