// Package analyze turns raw RFP text into structured data via LLM calls.
// Both extractions fail open: an LLM or parse failure yields a well-formed
// placeholder so downstream steps never see a malformed shape.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/bigshift-projects/naraworks/llm"
	"github.com/bigshift-projects/naraworks/proposal"
)

// maxAnalysisChars bounds the page text embedded in an extraction prompt.
// Truncation is a raw front-slice, same policy as the generation engine.
const maxAnalysisChars = 12000

// FailedOverviewName labels the placeholder returned when overview
// extraction fails.
const FailedOverviewName = "분석 실패 (RFP)"

type Analyzer struct {
	llm    llm.Client
	logger *log.Logger
}

func New(client llm.Client, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{llm: client, logger: logger}
}

const overviewSystemPrompt = `You are an analyst for Korean B2G (business-to-government) RFP documents.
Extract the project overview from the provided RFP text.
Respond with a single JSON object with exactly these keys:
{"project_name": string, "budget": string, "period": string, "key_objectives": [string], "summary": string}
Use empty strings or empty arrays for fields the text does not state. Respond in Korean.`

// Overview extracts the structured project overview from RFP page text.
func (a *Analyzer) Overview(ctx context.Context, text string) proposal.Overview {
	raw, err := a.generateJSON(ctx, overviewSystemPrompt, truncate(text, maxAnalysisChars))
	if err != nil {
		a.logger.Printf("overview extraction failed: %v", err)
		return failedOverview()
	}

	var overview proposal.Overview
	if err := json.Unmarshal([]byte(stripFences(raw)), &overview); err != nil {
		a.logger.Printf("overview response unparsable: %v", err)
		return failedOverview()
	}
	return overview
}

const tocSystemPrompt = `You are an analyst for Korean B2G (business-to-government) RFP documents.
Build a proposal table of contents from the provided RFP text.
Respond with a single JSON object shaped exactly like:
{"toc": [{"title": string, "sections": [{"title": string, "guideline": string}]}]}
Each chapter lists its sub-sections in document order. Every section's "guideline"
is one or two sentences describing what that section of the proposal should cover.
Respond in Korean.`

type tocEnvelope struct {
	TOC proposal.TOC `json:"toc"`
}

// TOC extracts the proposal outline from RFP page text. Every section comes
// back with status pending.
func (a *Analyzer) TOC(ctx context.Context, text string) proposal.TOC {
	raw, err := a.generateJSON(ctx, tocSystemPrompt, truncate(text, maxAnalysisChars))
	if err != nil {
		a.logger.Printf("toc extraction failed: %v", err)
		return proposal.TOC{}
	}

	var envelope tocEnvelope
	if err := json.Unmarshal([]byte(stripFences(raw)), &envelope); err != nil {
		a.logger.Printf("toc response unparsable: %v", err)
		return proposal.TOC{}
	}

	toc := envelope.TOC
	for _, section := range toc.Flatten() {
		if section.Status == "" {
			section.Status = proposal.SectionPending
		}
	}
	return toc
}

func (a *Analyzer) generateJSON(ctx context.Context, system, user string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("llm client is not configured")
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}

	if jsonClient, ok := a.llm.(llm.JSONClient); ok {
		return jsonClient.GenerateJSON(ctx, messages)
	}
	return a.llm.Generate(ctx, messages)
}

func failedOverview() proposal.Overview {
	return proposal.Overview{
		ProjectName:   FailedOverviewName,
		KeyObjectives: []string{},
	}
}

// stripFences removes a markdown code fence wrapper that some models emit
// even in JSON mode.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
