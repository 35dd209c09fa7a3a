package prompts

import (
	_ "embed"
	"strings"
	"text/template"
)

// Embedded prompt files

//go:embed system_instructions.tmpl
var systemInstructions string

//go:embed documents_preamble.txt
var documentsPreamble string

var systemTemplate = template.Must(template.New("system").Parse(systemInstructions))

// SystemData fills the system instructions template.
type SystemData struct {
	SystemPrompt string
	Profile      string
	// Hint is extra guidance attached to the trigger that asked for generation.
	Hint string
}

// SystemInstructions renders the system message, including the step marker
// conventions the step parser understands.
func SystemInstructions(data SystemData) string {
	var b strings.Builder
	if err := systemTemplate.Execute(&b, data); err != nil {
		// The template only reads string fields.
		return data.SystemPrompt
	}
	return b.String()
}

func DocumentsPreamble() string { return documentsPreamble }
