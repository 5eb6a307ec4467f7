package providers

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the summarization prompt shared by all providers.
// The text is cut to maxChars characters, marked with "...", when longer.
func BuildPrompt(req Request, maxChars int) string {
	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional summarizer. Please provide a concise and informative summary in %s.\n", language)
	if req.Requirement != "" {
		fmt.Fprintf(&b, "\nSpecial requirement: %s", req.Requirement)
	}
	b.WriteString("\n\nText to summarize:\n")
	b.WriteString(Truncate(req.Text, maxChars))
	b.WriteString("\n\nSummary:")
	return b.String()
}

// Truncate keeps the first maxChars characters of text and appends "..."
// when anything was cut. A non-positive maxChars disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}
