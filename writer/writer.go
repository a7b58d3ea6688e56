// Package writer builds the generation prompts and adapts llm.Client to
// the engine's SectionWriter and Summarizer interfaces.
package writer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bigshift-projects/naraworks/engine"
	"github.com/bigshift-projects/naraworks/llm"
)

// targetSectionChars is a soft length target passed to the model as an
// instruction, not enforced on the response.
const targetSectionChars = 1300

type Writer struct {
	llm    llm.Client
	logger *log.Logger
}

func New(client llm.Client, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{llm: client, logger: logger}
}

var (
	_ engine.SectionWriter = (*Writer)(nil)
	_ engine.Summarizer    = (*Writer)(nil)
)

// WriteSection produces the HTML fragment for one TOC section.
func (w *Writer) WriteSection(ctx context.Context, req engine.SectionRequest) (string, error) {
	if w.llm == nil {
		return "", fmt.Errorf("llm client is not configured")
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: sectionSystemPrompt(req)},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Please write the content for '%s'.", req.Title)},
	}

	content, err := w.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate section %q: %w", req.Title, err)
	}
	return strings.TrimSpace(content), nil
}

func sectionSystemPrompt(req engine.SectionRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an expert proposal writer for Korean B2G (business-to-government) projects.\n")
	sb.WriteString("Write a detailed, professional proposal section.\n\n")

	sb.WriteString("[Project Overview]\n")
	sb.WriteString(req.OverviewContext)
	sb.WriteString("\n\n[Proposal Outline]\n")
	sb.WriteString(req.Outline)
	sb.WriteString("\n\n[Writing Guidelines for this Section]\n")
	sb.WriteString(req.Guideline)
	sb.WriteString("\n\n[Previous Section Context]\n")
	sb.WriteString(req.PreviousSummary)
	sb.WriteString("\n\n[Referenced RFP Requirements]\n")
	sb.WriteString(req.RFPContext)
	sb.WriteString("\n\n[Company Knowledge Base]\n")
	sb.WriteString(req.KnowledgeContext)

	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("- Write in professional Korean.\n")
	sb.WriteString("- Use HTML tags (h2, h3, p, ul, li) for structure.\n")
	sb.WriteString("- Do NOT include <html> or <body> tags.\n")
	fmt.Fprintf(&sb, "- Aim for about %d characters of content.\n", targetSectionChars)
	sb.WriteString("- Ensure the content is specific to the RFP requirements.\n")
	fmt.Fprintf(&sb, "- Focus strictly on the section title: %s\n", req.Title)
	return sb.String()
}

// Summarize condenses a generated section into the rolling context carried
// to the next section.
func (w *Writer) Summarize(ctx context.Context, content string) (string, error) {
	if w.llm == nil {
		return "", fmt.Errorf("llm client is not configured")
	}

	prompt := "Summarize the following proposal section in 3-5 sentences for context:\n\n" + content
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}

	summary, err := w.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summarize section: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// Draft writes a standalone section from nothing but its title, used by
// the per-section generation endpoint where no run context exists.
func (w *Writer) Draft(ctx context.Context, title string) (string, error) {
	if w.llm == nil {
		return "", fmt.Errorf("llm client is not configured")
	}

	system := "You are an expert proposal writer for Korean B2G projects. " +
		"Write one professional proposal section in Korean using HTML tags (h2, h3, p, ul, li). " +
		"Do NOT include <html> or <body> tags."
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Write the proposal section titled '%s'.", title)},
	}

	content, err := w.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("draft section %q: %w", title, err)
	}
	return strings.TrimSpace(content), nil
}
