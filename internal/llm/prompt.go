package llm

import (
	"sort"
	"strings"

	"github.com/odunayo-falade/fleetdocs/constants"
)

// StrictJSONReminder is appended on the retry pass when the first response
// could not be parsed.
const StrictJSONReminder = "\n\nReturn ONLY a single JSON object. No prose, no code fences, no explanation."

// BuildPrompt assembles the category-specific extraction instruction:
// the exact field keys to return, the copy-verbatim rules, the authority
// abbreviation vocabulary, and a bounded prefix of the acquired text.
func BuildPrompt(text string, category constants.Category, spec constants.CategorySpec, filename string, maxTextChars int) string {
	if maxTextChars <= 0 {
		maxTextChars = 4000
	}

	var b strings.Builder
	b.WriteString("You extract structured fields from ship compliance certificates.\n")
	b.WriteString("Document category: ")
	b.WriteString(string(category))
	b.WriteString("\nFilename: ")
	b.WriteString(filename)
	b.WriteString("\n\nReturn a JSON object with exactly these keys:\n")
	for _, key := range spec.FieldKeys {
		b.WriteString("- ")
		b.WriteString(key)
		b.WriteString("\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Copy values verbatim from the document text.\n")
	b.WriteString("- Dates must be ISO-8601 (YYYY-MM-DD).\n")
	b.WriteString("- Numeric fields must be bare numbers, not strings.\n")
	b.WriteString("- The vessel_imo value is the 7-digit IMO registry number, digits only.\n")
	b.WriteString("- If information is absent, use null. Never fabricate a value.\n")
	b.WriteString("- Optionally include a \"confidence\" number between 0 and 1.\n")

	if len(spec.Abbreviations) > 0 {
		b.WriteString("\nFor issuing_authority, prefer these canonical abbreviations:\n")
		longNames := make([]string, 0, len(spec.Abbreviations))
		for long := range spec.Abbreviations {
			longNames = append(longNames, long)
		}
		sort.Strings(longNames)
		for _, long := range longNames {
			b.WriteString("- ")
			b.WriteString(long)
			b.WriteString(" => ")
			b.WriteString(spec.Abbreviations[long])
			b.WriteString("\n")
		}
	}

	b.WriteString("\nDocument text")
	if len(text) > maxTextChars {
		b.WriteString(" (truncated)")
		text = text[:maxTextChars]
	}
	b.WriteString(":\n")
	b.WriteString(text)
	return b.String()
}
