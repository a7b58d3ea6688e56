package engine

import (
	"encoding/json"
	"strings"

	"github.com/bigshift-projects/naraworks/proposal"
)

// FormatOverview renders the structured overview as narrative prompt
// context. Missing fields are omitted, never rendered empty, so the output
// is deterministic for a given overview.
func FormatOverview(o proposal.Overview) string {
	lines := make([]string, 0, 5)
	if o.ProjectName != "" {
		lines = append(lines, "Project: "+o.ProjectName)
	}
	if o.Summary != "" {
		lines = append(lines, "Summary: "+o.Summary)
	}
	if o.Budget != "" {
		lines = append(lines, "Budget: "+o.Budget)
	}
	if o.Period != "" {
		lines = append(lines, "Period: "+o.Period)
	}
	if len(o.KeyObjectives) > 0 {
		lines = append(lines, "Objectives: "+strings.Join(o.KeyObjectives, ", "))
	}
	return strings.Join(lines, "\n")
}

// FormatRawOverview renders overview JSON as prompt context. Unparsable
// input is used verbatim rather than failing.
func FormatRawOverview(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var o proposal.Overview
	if err := json.Unmarshal(raw, &o); err != nil {
		return string(raw)
	}
	return FormatOverview(o)
}

// FormatOutline flattens the TOC to one title per line in document order:
// each chapter title followed by its section titles.
func FormatOutline(toc proposal.TOC) string {
	lines := make([]string, 0, len(toc)+toc.SectionCount())
	for _, chapter := range toc {
		lines = append(lines, chapter.Title)
		for _, section := range chapter.Sections {
			lines = append(lines, "  "+section.Title)
		}
	}
	return strings.Join(lines, "\n")
}

// GuidelineFor looks up the writing guideline for a section by exact title
// match against the flattened TOC.
func GuidelineFor(toc proposal.TOC, title string) (string, bool) {
	for _, chapter := range toc {
		for _, section := range chapter.Sections {
			if section.Title == title {
				return section.Guideline, true
			}
		}
	}
	return "", false
}

// Truncate keeps the first limit characters of text. A plain front-slice:
// RFPs front-load the binding requirements, so the head of the document is
// the most relevant window. May cut mid-sentence.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
