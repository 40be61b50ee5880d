// Package summary defines the structured-markdown shape every generated
// summary must satisfy, and the tolerant parsing used by the dashboard,
// share view, and PDF export.
package summary

import "strings"

// SectionTitles are the five mandatory sections, in fixed order. Every
// summary document contains all of them, each under a "## " heading,
// even when a section has no applicable content.
var SectionTitles = []string{
	"Overview",
	"Key Topics Discussed",
	"Action Items",
	"Key Decisions",
	"Important Details & Notes",
}

// PlaceholderLine is emitted for a section with no applicable content.
const PlaceholderLine = "_None identified._"

// overviewFallbackChars caps the raw-text fallback when a document has
// no recognizable headings.
const overviewFallbackChars = 300

// attribution is the fixed line appended to every persisted summary.
const attribution = "_Summary generated automatically from the recording transcript._"

// Section is one parsed summary section.
type Section struct {
	Title string
	Lines []string
}

// Placeholder builds the all-empty document: every mandatory header
// with its placeholder line. Used when the transcript has no content
// to summarize.
func Placeholder() string {
	var sb strings.Builder
	for i, title := range SectionTitles {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## " + title + "\n\n" + PlaceholderLine + "\n")
	}
	return sb.String()
}

// WithAttribution appends the fixed attribution line to a summary
// document. Idempotent: a document already carrying the line is
// returned unchanged.
func WithAttribution(md string) string {
	md = strings.TrimRight(md, "\n")
	if strings.HasSuffix(md, attribution) {
		return md + "\n"
	}
	return md + "\n\n---\n\n" + attribution + "\n"
}

// Parse splits a summary document into its sections. It tolerates an
// empty document, missing sections, and inline emphasis in list items.
// When no "## " heading is found at all, the whole text collapses into
// a single Overview section built from the first paragraph, capped at
// a fixed character budget.
func Parse(md string) []Section {
	md = strings.TrimSpace(md)
	if md == "" {
		return nil
	}

	var sections []Section
	var current *Section
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, " \t")
		if title, ok := headingTitle(line); ok {
			sections = append(sections, Section{Title: title})
			current = &sections[len(sections)-1]
			continue
		}
		if current == nil {
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" && trimmed != "---" {
			current.Lines = append(current.Lines, trimmed)
		}
	}

	if len(sections) == 0 {
		return []Section{{Title: SectionTitles[0], Lines: []string{overviewFallback(md)}}}
	}
	return sections
}

// headingTitle matches "## Title" and "# Title" lines.
func headingTitle(line string) (string, bool) {
	for _, prefix := range []string{"## ", "# "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

// overviewFallback returns the first paragraph of raw text, capped.
func overviewFallback(md string) string {
	para := md
	if idx := strings.Index(md, "\n\n"); idx > 0 {
		para = md[:idx]
	}
	para = strings.TrimSpace(strings.ReplaceAll(para, "\n", " "))
	runes := []rune(para)
	if len(runes) > overviewFallbackChars {
		return string(runes[:overviewFallbackChars])
	}
	return para
}

// PlainLine strips markdown list, checkbox, and emphasis markers from a
// section line, for plain-text renderers such as the PDF export.
func PlainLine(line string) string {
	s := strings.TrimSpace(line)
	for _, prefix := range []string{"- [ ] ", "- [x] ", "- [X] ", "- ", "* ", "+ "} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}

// HasAllSections reports whether a document contains every mandatory
// section header.
func HasAllSections(md string) bool {
	found := make(map[string]bool, len(SectionTitles))
	for _, sec := range Parse(md) {
		found[sec.Title] = true
	}
	for _, title := range SectionTitles {
		if !found[title] {
			return false
		}
	}
	return true
}
