// Package engine drives sequential proposal generation: an ordered walk
// over the TOC that calls the section writer once per leaf section,
// carries a rolling summary between steps, and checkpoints partial output
// after every section. One failed section never aborts the walk.
package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/bigshift-projects/naraworks/proposal"
)

// Character budgets applied to prompt context, raw front-slices per source.
const (
	maxRFPContextChars = 8000
	maxKnowledgeChars  = 4000
)

// FirstSectionNote stands in for the rolling summary on the first step.
const FirstSectionNote = "This is the first section."

// SectionRequest carries everything the section writer needs for one
// section's prompt. All context fields are already truncated.
type SectionRequest struct {
	Title            string
	Guideline        string
	OverviewContext  string
	Outline          string
	PreviousSummary  string
	RFPContext       string
	KnowledgeContext string
}

// SectionWriter produces the HTML fragment for one section.
type SectionWriter interface {
	WriteSection(ctx context.Context, req SectionRequest) (string, error)
}

// Summarizer condenses a generated section for the next step's context.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// ProgressStore receives the incremental checkpoint after every section and
// the final completion write.
type ProgressStore interface {
	SaveProgress(ctx context.Context, id string, content string, toc proposal.TOC) error
	Complete(ctx context.Context, id string, content string) error
}

// KnowledgeSource supplies the company-background context, fetched once at
// run start.
type KnowledgeSource interface {
	AllContent(ctx context.Context) (string, error)
}

// Input starts one generation run against an existing proposal row.
type Input struct {
	ProjectID string
	Overview  proposal.Overview
	TOC       proposal.TOC
	RFPText   string
}

// State is the mutable run state threaded through the walk.
type State struct {
	ProjectID           string
	Overview            proposal.Overview
	TOC                 proposal.TOC
	CurrentSectionIndex int
	FullContent         string
	RFPText             string
	KnowledgeContext    string
	PrevSectionSummary  string
}

type Engine struct {
	writer     SectionWriter
	summarizer Summarizer
	store      ProgressStore
	knowledge  KnowledgeSource
	logger     *log.Logger
}

func New(writer SectionWriter, summarizer Summarizer, store ProgressStore, knowledge KnowledgeSource, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		writer:     writer,
		summarizer: summarizer,
		store:      store,
		knowledge:  knowledge,
		logger:     logger,
	}
}

// Run walks every TOC section in document order and returns the
// accumulated HTML. Individual section, summarization, and checkpoint
// failures are logged and skipped; the returned content reflects whatever
// succeeded. The caller must not start two concurrent runs for the same
// project id: incremental writes are last-write-wins with no version check.
func (e *Engine) Run(ctx context.Context, in Input) (string, error) {
	if e.writer == nil {
		return "", fmt.Errorf("section writer is not configured")
	}
	if e.store == nil {
		return "", fmt.Errorf("progress store is not configured")
	}

	st := State{
		ProjectID: in.ProjectID,
		Overview:  in.Overview,
		TOC:       in.TOC,
		RFPText:   in.RFPText,
	}
	if e.knowledge != nil {
		knowledge, err := e.knowledge.AllContent(ctx)
		if err != nil {
			e.logger.Printf("fetch knowledge context: %v", err)
		} else {
			st.KnowledgeContext = knowledge
		}
	}

	sections := st.TOC.Flatten()
	total := len(sections)

	overviewContext := FormatOverview(st.Overview)
	outline := FormatOutline(st.TOC)
	rfpContext := Truncate(st.RFPText, maxRFPContextChars)
	knowledgeContext := Truncate(st.KnowledgeContext, maxKnowledgeChars)

	for st.CurrentSectionIndex < total {
		i := st.CurrentSectionIndex
		section := sections[i]
		e.logger.Printf("generating section %d/%d: %s", i+1, total, section.Title)

		previous := st.PrevSectionSummary
		if i == 0 {
			previous = FirstSectionNote
		}

		content, err := e.writer.WriteSection(ctx, SectionRequest{
			Title:            section.Title,
			Guideline:        section.Guideline,
			OverviewContext:  overviewContext,
			Outline:          outline,
			PreviousSummary:  previous,
			RFPContext:       rfpContext,
			KnowledgeContext: knowledgeContext,
		})
		if err != nil {
			// The section contributes nothing; the walk continues.
			e.logger.Printf("section generation failed for %q: %v", section.Title, err)
		} else {
			st.FullContent += content

			if e.summarizer != nil {
				summary, serr := e.summarizer.Summarize(ctx, content)
				if serr != nil {
					// Stale summary is reused on the next step.
					e.logger.Printf("summarize section %q: %v", section.Title, serr)
				} else {
					st.PrevSectionSummary = summary
				}
			}

			section.Status = proposal.SectionDone
			if i+1 < total {
				sections[i+1].Status = proposal.SectionGenerating
			}
		}

		if err := e.store.SaveProgress(ctx, st.ProjectID, st.FullContent, st.TOC); err != nil {
			e.logger.Printf("incremental save failed for proposal %s: %v", st.ProjectID, err)
		}

		st.CurrentSectionIndex++
	}

	if err := e.store.Complete(ctx, st.ProjectID, st.FullContent); err != nil {
		// The in-memory result is still handed back; completion can be
		// retried by the caller.
		e.logger.Printf("final save failed for proposal %s: %v", st.ProjectID, err)
	}

	return st.FullContent, nil
}
