package services

import "strings"

// PromptBuilder turns user text into the completion prompt. With an empty
// Persona the text is sent unchanged; otherwise the result is
// Persona + "\n\n" + QuestionPrefix + text.
type PromptBuilder struct {
	Persona        string
	QuestionPrefix string
}

// Build returns the prompt for text.
func (b PromptBuilder) Build(text string) string {
	if strings.TrimSpace(b.Persona) == "" {
		return text
	}
	return b.Persona + "\n\n" + b.QuestionPrefix + text
}
