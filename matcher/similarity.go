package matcher

import (
	"github.com/xrash/smetrics"
)

// Signal weights of the fused score.
const (
	LexicalWeight  = 0.5
	StemmedWeight  = 0.3
	WeightedWeight = 0.2

	// DirectMatchRatio is the share of phrase words that must appear in the
	// message for the score to be floored at the trigger threshold.
	DirectMatchRatio = 0.8
)

// Breakdown is a fused score with its component signals.
type Breakdown struct {
	Lexical  float64
	Stemmed  float64
	Weighted float64
	Direct   bool
	Total    float64
}

// Scorer fuses the three similarity signals. It is safe for concurrent use
// when its corpus is.
type Scorer struct {
	corpus Corpus
}

func NewScorer(corpus Corpus) *Scorer {
	if corpus == nil {
		corpus = PairCorpus{}
	}
	return &Scorer{corpus: corpus}
}

// Score compares a message to a phrase and returns a value in [0,1]. The
// direct-overlap floor is not applied here; see Matcher.
func (s *Scorer) Score(message, phrase string) float64 {
	return s.breakdown(analyze(message), analyze(phrase)).Total
}

func (s *Scorer) breakdown(msg, phr analyzed) Breakdown {
	b := Breakdown{
		Lexical:  JaroWinkler(msg.lower, phr.lower),
		Stemmed:  StemmedOverlap(msg.stems, phr.stems),
		Weighted: clamp01(s.corpus.Measure(msg.tokens, phr.tokens) / 10),
		Direct:   directMatch(msg.words, phr.words),
	}
	b.Total = LexicalWeight*b.Lexical + StemmedWeight*b.Stemmed + WeightedWeight*b.Weighted
	return b
}

// JaroWinkler returns the Jaro-Winkler similarity of two strings.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// StemmedOverlap counts stems of the first list found anywhere in the second,
// one count per occurrence in the first list.
func StemmedOverlap(stems1, stems2 []string) float64 {
	n := len(stems1) + len(stems2)
	if n == 0 {
		return 0
	}
	present := make(map[string]struct{}, len(stems2))
	for _, s := range stems2 {
		present[s] = struct{}{}
	}
	common := 0
	for _, s := range stems1 {
		if _, ok := present[s]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}
	return min(1, 2*float64(common)/float64(n)+0.1)
}

// DirectMatch reports whether at least 80% of the phrase's distinct words
// appear in the message.
func DirectMatch(message, phrase string) bool {
	return directMatch(wordSet(message), wordSet(phrase))
}

func directMatch(messageWords, phraseWords map[string]struct{}) bool {
	if len(phraseWords) == 0 {
		return false
	}
	matched := 0
	for w := range phraseWords {
		if _, ok := messageWords[w]; ok {
			matched++
		}
	}
	return float64(matched)/float64(len(phraseWords)) >= DirectMatchRatio
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
