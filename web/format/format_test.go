package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"numbered", "[STEP_1]A[STEP_2]B", []string{"A", "B"}},
		{"plain text", "plain text", []string{"plain text"}},
		{"sentinel blocks", "[HAS_NEXT_STEPS]\nA\n\nB", []string{"A", "B"}},
		{"sentinel single block", "[HAS_NEXT_STEPS]\nonly one", []string{"only one"}},
		{"trimmed", "  [STEP_1]  first  \n[STEP_2]\n second\n", []string{"first", "second"}},
		{"out of order", "[STEP_2]B[STEP_1]A", []string{"A", "B"}},
		{"sparse", "[STEP_1]A[STEP_3]C", []string{"A", "C"}},
		{"duplicate keeps last", "[STEP_1]A[STEP_1]again", []string{"again"}},
		{"zero only terminates", "[STEP_1]A[STEP_0]junk[STEP_2]B", []string{"A", "B"}},
		{"sentinel with markers", "[HAS_NEXT_STEPS]\n[STEP_1] Install\n[STEP_2] Run", []string{"Install", "Run"}},
		{"crlf blocks", "[HAS_NEXT_STEPS]\r\nA\r\n\r\nB", []string{"A", "B"}},
		{"empty", "", []string{""}},
		{"empty markers", "[STEP_1]   [STEP_2]", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSteps(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
		})
	}
}

func TestStepMarker(t *testing.T) {
	assert.Equal(t, "[STEP_3]", StepMarker(3))
	assert.True(t, HasTag("x [STEP_12] y", StepTag))
	assert.Equal(t, "a  b", StripAllTags("a [STEP_1] b[HAS_NEXT_STEPS]"))
}

func TestSplitRoundTripAndBound(t *testing.T) {
	long := strings.Repeat("word ", 30)
	inputs := []string{
		"short",
		"para one\n\npara two\n\npara three",
		"line one\nline two\nline three\nline four",
		long + "\n\n" + long + "\nend",
		"\n\nleading blank paragraphs",
		"héllo wörld ünïcode " + strings.Repeat("é", 10),
		"aaaa bbbb\n",
		"a \n\n",
		"\n\n",
		strings.Repeat("abc ", 20) + "\n",
		"\n \n\n  x\n\n",
	}
	for _, in := range inputs {
		for _, max := range []int{1, 2, 4, 10, 25, 60, 2000} {
			chunks := Split(in, max)
			require.NotEmpty(t, chunks, "input %q", in)
			assert.Equal(t, in, Join(chunks), "max %d", max)
			for _, c := range chunks {
				assert.NotEmpty(t, c.Text, "input %q max %d", in, max)
				if utf8.RuneCountInString(c.Text) > max {
					assert.False(t, strings.ContainsAny(c.Text, " \n"), "oversized chunk must be one word: %q (max %d)", c.Text, max)
				}
			}
		}
	}
}

func TestSplitKeepsTrailingSeparatorOutOfText(t *testing.T) {
	chunks := Split("aaaa bbbb\n", 4)
	assert.Equal(t, []Chunk{{Text: "aaaa", Sep: " "}, {Text: "bbbb", Sep: "\n"}}, chunks)
	assert.Equal(t, []string{"aaaa", "bbbb"}, SplitMessage("aaaa bbbb\n", 4))

	para := strings.Repeat("x", 1999) + " y\n"
	for _, msg := range SplitMessage(para, 2000) {
		assert.LessOrEqual(t, utf8.RuneCountInString(msg), 2000)
	}
}

func TestSplitLeadingSeparatorsFitLimit(t *testing.T) {
	chunks := Split("\n\n", 1)
	assert.Equal(t, []Chunk{{Text: "\n"}, {Text: "\n"}}, chunks)
	assert.Empty(t, SplitMessage("\n\n", 1))
}

func TestSplitPrefersParagraphs(t *testing.T) {
	in := "aaaa bbbb\n\ncccc dddd"
	chunks := Split(in, 12)
	require.Len(t, chunks, 2)
	assert.Equal(t, Chunk{Text: "aaaa bbbb", Sep: "\n\n"}, chunks[0])
	assert.Equal(t, Chunk{Text: "cccc dddd"}, chunks[1])
}

func TestSplitFallsBackToLinesThenWords(t *testing.T) {
	chunks := Split("one two\nthree four five six", 10)
	assert.Equal(t, []string{"one two", "three four", "five six"}, textsOf(chunks))
	assert.Equal(t, "\n", chunks[0].Sep)
	assert.Equal(t, " ", chunks[1].Sep)
}

func TestSplitLongWord(t *testing.T) {
	word := strings.Repeat("x", 15)
	got := SplitMessage("a "+word+" b", 5)
	assert.Equal(t, []string{"a", word, "b"}, got)
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 10))
	assert.Nil(t, SplitMessage("", 10))
}

func TestToHTML(t *testing.T) {
	out := ToHTML("Steps:\n1. Install\n2. Run")
	assert.Contains(t, out, "<ol>")
	assert.Contains(t, out, "<li>Install</li>")
	assert.Equal(t, "", ToHTML("   "))
}

func TestPreprocessAssistantText(t *testing.T) {
	assert.Equal(t, "\"hi\" it's\n", PreprocessAssistantText("“hi” it’s\r\n"))
}

func textsOf(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
