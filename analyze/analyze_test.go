package analyze_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/bigshift-projects/naraworks/analyze"
	"github.com/bigshift-projects/naraworks/llm"
	"github.com/bigshift-projects/naraworks/proposal"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var _ llm.Client = (*stubLLM)(nil)

type stubJSONLLM struct {
	stubLLM
	jsonCalls int
}

func (s *stubJSONLLM) GenerateJSON(ctx context.Context, messages []llm.Message) (string, error) {
	s.jsonCalls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var _ llm.JSONClient = (*stubJSONLLM)(nil)

func newAnalyzer(client llm.Client) *analyze.Analyzer {
	return analyze.New(client, log.New(io.Discard, "", 0))
}

func TestOverviewParsesResponse(t *testing.T) {
	client := &stubLLM{response: `{"project_name":"AI 바우처","budget":"5억원","period":"12개월","key_objectives":["도입","확산"],"summary":"요약"}`}

	overview := newAnalyzer(client).Overview(context.Background(), "rfp text")

	if overview.ProjectName != "AI 바우처" {
		t.Fatalf("unexpected project name: %q", overview.ProjectName)
	}
	if len(overview.KeyObjectives) != 2 {
		t.Fatalf("unexpected objectives: %v", overview.KeyObjectives)
	}
}

func TestOverviewStripsCodeFences(t *testing.T) {
	client := &stubLLM{response: "```json\n{\"project_name\":\"사업\"}\n```"}

	overview := newAnalyzer(client).Overview(context.Background(), "rfp text")
	if overview.ProjectName != "사업" {
		t.Fatalf("fenced json should still parse, got %q", overview.ProjectName)
	}
}

func TestOverviewFailsOpenOnLLMError(t *testing.T) {
	client := &stubLLM{err: errors.New("llm down")}

	overview := newAnalyzer(client).Overview(context.Background(), "rfp text")

	if overview.ProjectName != analyze.FailedOverviewName {
		t.Fatalf("expected placeholder name, got %q", overview.ProjectName)
	}
	if overview.KeyObjectives == nil || len(overview.KeyObjectives) != 0 {
		t.Fatalf("placeholder must carry empty lists, got %v", overview.KeyObjectives)
	}
}

func TestOverviewFailsOpenOnGarbage(t *testing.T) {
	client := &stubLLM{response: "I cannot help with that."}

	overview := newAnalyzer(client).Overview(context.Background(), "rfp text")
	if overview.ProjectName != analyze.FailedOverviewName {
		t.Fatalf("expected placeholder for unparsable response, got %q", overview.ProjectName)
	}
}

func TestTOCParsesAndDefaultsStatus(t *testing.T) {
	client := &stubLLM{response: `{"toc":[{"title":"1. 사업 이해","sections":[{"title":"1.1 배경","guideline":"배경 서술"},{"title":"1.2 목표","guideline":"목표 서술"}]}]}`}

	toc := newAnalyzer(client).TOC(context.Background(), "rfp text")

	if toc.SectionCount() != 2 {
		t.Fatalf("expected 2 sections, got %d", toc.SectionCount())
	}
	for _, section := range toc.Flatten() {
		if section.Status != proposal.SectionPending {
			t.Fatalf("section %q should default to pending, got %q", section.Title, section.Status)
		}
	}
}

func TestTOCFailsOpenToEmpty(t *testing.T) {
	client := &stubLLM{err: errors.New("llm down")}

	toc := newAnalyzer(client).TOC(context.Background(), "rfp text")
	if toc == nil || len(toc) != 0 {
		t.Fatalf("expected well-formed empty TOC, got %v", toc)
	}
}

func TestAnalyzerPrefersJSONMode(t *testing.T) {
	client := &stubJSONLLM{stubLLM: stubLLM{response: `{"project_name":"사업"}`}}

	newAnalyzer(client).Overview(context.Background(), "rfp text")

	if client.jsonCalls != 1 {
		t.Fatalf("expected GenerateJSON to be used, json=%d plain=%d", client.jsonCalls, client.calls)
	}
	if client.calls != 0 {
		t.Fatalf("plain Generate should not be used when JSON mode exists, got %d calls", client.calls)
	}
}
