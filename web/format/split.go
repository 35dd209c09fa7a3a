package format

import (
	"strings"
	"unicode/utf8"
)

// Separators in order of preference.
const (
	ParagraphSep = "\n\n"
	LineSep      = "\n"
	WordSep      = " "
)

// Chunk is one transport-sized piece of a message. Sep is the separator that
// followed the chunk in the original text and does not count towards the
// length limit. On the last chunk it holds any trailing separator.
type Chunk struct {
	Text string
	Sep  string
}

// Join reassembles chunks into the text they were split from.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
		b.WriteString(c.Sep)
	}
	return b.String()
}

type atom struct {
	text string
	sep  string // separator preceding text
}

// Split breaks text into chunks of at most maxLength runes, preferring
// paragraph boundaries, then line boundaries, then word boundaries. A single
// word longer than maxLength becomes a chunk of its own. Leading separators
// that do not fit are cut into whitespace-only chunks. Empty text yields no
// chunks.
func Split(text string, maxLength int) []Chunk {
	if text == "" {
		return nil
	}
	if maxLength <= 0 || utf8.RuneCountInString(text) <= maxLength {
		return []Chunk{{Text: text}}
	}

	var chunks []Chunk
	var current strings.Builder
	currentLen := 0
	started := false

	for _, a := range atomize(text, maxLength) {
		textLen := utf8.RuneCountInString(a.text)
		sepLen := utf8.RuneCountInString(a.sep)

		switch {
		case !started:
			current.WriteString(a.text)
			currentLen = textLen
			started = true
		case currentLen == 0 && sepLen+textLen <= maxLength:
			// Never emit an empty chunk; the separator becomes leading text.
			current.WriteString(a.sep)
			current.WriteString(a.text)
			currentLen = sepLen + textLen
		case currentLen == 0:
			if len(chunks) > 0 {
				chunks[len(chunks)-1].Sep += a.sep
			} else {
				chunks = append(chunks, cutRunes(a.sep, maxLength)...)
			}
			current.WriteString(a.text)
			currentLen = textLen
		case currentLen+sepLen+textLen <= maxLength:
			current.WriteString(a.sep)
			current.WriteString(a.text)
			currentLen += sepLen + textLen
		default:
			chunks = append(chunks, Chunk{Text: current.String(), Sep: a.sep})
			current.Reset()
			current.WriteString(a.text)
			currentLen = textLen
		}
	}
	if current.Len() > 0 || len(chunks) == 0 {
		chunks = append(chunks, Chunk{Text: current.String()})
	}
	return chunks
}

// cutRunes splits s into chunks of at most n runes.
func cutRunes(s string, n int) []Chunk {
	var out []Chunk
	for s != "" {
		end, count := 0, 0
		for end < len(s) && count < n {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			count++
		}
		out = append(out, Chunk{Text: s[:end]})
		s = s[end:]
	}
	return out
}

// atomize flattens text into the coarsest pieces that fit, each carrying the
// separator that precedes it.
func atomize(text string, maxLength int) []atom {
	var atoms []atom
	for i, para := range strings.Split(text, ParagraphSep) {
		paraSep := ""
		if i > 0 {
			paraSep = ParagraphSep
		}
		if utf8.RuneCountInString(para) <= maxLength {
			atoms = append(atoms, atom{text: para, sep: paraSep})
			continue
		}

		for j, line := range strings.Split(para, LineSep) {
			lineSep := LineSep
			if j == 0 {
				lineSep = paraSep
			}
			if utf8.RuneCountInString(line) <= maxLength {
				atoms = append(atoms, atom{text: line, sep: lineSep})
				continue
			}

			for k, word := range strings.Split(line, WordSep) {
				wordSep := WordSep
				if k == 0 {
					wordSep = lineSep
				}
				atoms = append(atoms, atom{text: word, sep: wordSep})
			}
		}
	}
	return atoms
}

// SplitMessage returns just the chunk texts, ready to send one by one.
// Separators between chunks and whitespace-only chunks are dropped, since chat
// transports reject blank messages.
func SplitMessage(text string, maxLength int) []string {
	var out []string
	for _, c := range Split(text, maxLength) {
		if strings.TrimSpace(c.Text) != "" {
			out = append(out, c.Text)
		}
	}
	return out
}
