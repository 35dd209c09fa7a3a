package format

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// ParseSteps splits a generated answer into ordered steps. It always returns
// at least one step.
//
// Numbered markers win: each [STEP_n] owns the text up to the next marker,
// steps are ordered by n, gaps are closed, a repeated n keeps its last text,
// and markers with n < 1 only terminate the previous step. Without markers,
// a [HAS_NEXT_STEPS] sentinel asks for the text to be split on blank lines.
// Otherwise the whole trimmed text is a single step.
func ParseSteps(text string) []string {
	text = normalizeNewlines(text)

	if steps := parseNumbered(text); len(steps) > 0 {
		return steps
	}

	if HasTag(text, HasNextStepsTag) {
		clean := strings.TrimSpace(StripTag(text, HasNextStepsTag))
		var steps []string
		for _, block := range blankLine.Split(clean, -1) {
			if block = strings.TrimSpace(block); block != "" {
				steps = append(steps, block)
			}
		}
		if len(steps) > 1 {
			return steps
		}
		return []string{clean}
	}

	return []string{strings.TrimSpace(StripAllTags(text))}
}

func parseNumbered(text string) []string {
	locs := StepTag.Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	byNumber := make(map[int]string, len(locs))
	for i, loc := range locs {
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || n < 1 {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		byNumber[n] = text[loc[1]:end]
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)

	steps := make([]string, 0, len(numbers))
	for _, n := range numbers {
		step := strings.TrimSpace(StripTag(byNumber[n], HasNextStepsTag))
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}
