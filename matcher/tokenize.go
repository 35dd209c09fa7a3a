package matcher

import (
	"slices"
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/jdkato/prose/v2"
)

func hasWordRune(token string) bool {
	return strings.ContainsFunc(token, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// Tokenize lowercases text and splits it into word tokens. Tokens made only of
// punctuation are dropped. Contractions split the Penn Treebank way
// ("can't" becomes "ca", "n't") and hyphenated words stay whole.
func Tokenize(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return slices.DeleteFunc(strings.Fields(text), func(tok string) bool { return !hasWordRune(tok) })
	}

	var tokens []string
	for _, tok := range doc.Tokens() {
		if hasWordRune(tok.Text) {
			tokens = append(tokens, tok.Text)
		}
	}
	return tokens
}

// Stem returns the Porter stem of a single token.
func Stem(token string) string {
	return porterstemmer.StemString(token)
}

// StemAll stems every token, preserving order and duplicates.
func StemAll(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = Stem(tok)
	}
	return stems
}

// wordSet is the whitespace-delimited, lowercased word set used by the
// direct-overlap test.
func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// analyzed is a piece of text with everything the scorer needs precomputed.
type analyzed struct {
	lower  string
	tokens []string
	stems  []string
	words  map[string]struct{}
}

func analyze(text string) analyzed {
	tokens := Tokenize(text)
	return analyzed{
		lower:  strings.ToLower(text),
		tokens: tokens,
		stems:  StemAll(tokens),
		words:  wordSet(text),
	}
}
