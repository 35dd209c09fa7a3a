package format

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker names used in generated answers.
const (
	TagStep         = "step"
	TagHasNextSteps = "has_next_steps"
)

// Tag represents a bracketed marker the model is asked to emit.
type Tag struct {
	Name    string         // Internal name
	Marker  string         // Literal marker, or a printf pattern for numbered markers
	Pattern *regexp.Regexp // Matches every form of the marker
}

// Predefined markers
var (
	StepTag = Tag{
		Name:    TagStep,
		Marker:  "[STEP_%d]",
		Pattern: regexp.MustCompile(`\[STEP_(\d+)\]`),
	}

	HasNextStepsTag = Tag{
		Name:    TagHasNextSteps,
		Marker:  "[HAS_NEXT_STEPS]",
		Pattern: regexp.MustCompile(`\[HAS_NEXT_STEPS\]`),
	}

	// AllTags contains all tags for iteration
	AllTags = []Tag{StepTag, HasNextStepsTag}
)

// StepMarker renders the marker for step n.
func StepMarker(n int) string {
	return fmt.Sprintf(StepTag.Marker, n)
}

// HasTag checks if text contains the marker in any form.
func HasTag(text string, tag Tag) bool {
	return tag.Pattern.MatchString(text)
}

// StripTag removes every occurrence of the marker from text.
func StripTag(text string, tag Tag) string {
	return tag.Pattern.ReplaceAllString(text, "")
}

// StripAllTags removes all known markers from text.
func StripAllTags(text string) string {
	for _, tag := range AllTags {
		text = StripTag(text, tag)
	}
	return text
}

// normalizeNewlines converts CRLF and lone CR line endings to LF.
func normalizeNewlines(text string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
}
