package writer_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/bigshift-projects/naraworks/engine"
	"github.com/bigshift-projects/naraworks/llm"
	"github.com/bigshift-projects/naraworks/writer"
)

type stubLLM struct {
	response string
	err      error
	messages [][]llm.Message
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.messages = append(s.messages, messages)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var _ llm.Client = (*stubLLM)(nil)

func newWriter(client llm.Client) *writer.Writer {
	return writer.New(client, log.New(io.Discard, "", 0))
}

func TestWriteSectionPromptCarriesContext(t *testing.T) {
	client := &stubLLM{response: "  <h2>개요</h2><p>본문</p>\n"}

	content, err := newWriter(client).WriteSection(context.Background(), engine.SectionRequest{
		Title:            "1.1 추진 배경",
		Guideline:        "추진 배경과 필요성을 서술",
		OverviewContext:  "Project: AI 바우처",
		Outline:          "1. 사업 이해\n  1.1 추진 배경",
		PreviousSummary:  engine.FirstSectionNote,
		RFPContext:       "RFP 요구사항",
		KnowledgeContext: "회사 실적",
	})
	if err != nil {
		t.Fatalf("write section failed: %v", err)
	}

	if content != "<h2>개요</h2><p>본문</p>" {
		t.Fatalf("content should be trimmed, got %q", content)
	}

	if len(client.messages) != 1 {
		t.Fatalf("expected one llm call, got %d", len(client.messages))
	}
	msgs := client.messages[0]
	if msgs[0].Role != llm.RoleSystem || msgs[1].Role != llm.RoleUser {
		t.Fatalf("unexpected message roles: %v, %v", msgs[0].Role, msgs[1].Role)
	}

	system := msgs[0].Content
	for _, want := range []string{
		"추진 배경과 필요성을 서술",
		"Project: AI 바우처",
		engine.FirstSectionNote,
		"RFP 요구사항",
		"회사 실적",
		"h2, h3, p, ul, li",
		"Do NOT include <html> or <body> tags",
		"1.1 추진 배경",
	} {
		if !strings.Contains(system, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, system)
		}
	}

	if !strings.Contains(msgs[1].Content, "1.1 추진 배경") {
		t.Fatalf("user message must name the section, got %q", msgs[1].Content)
	}
}

func TestWriteSectionWrapsError(t *testing.T) {
	client := &stubLLM{err: errors.New("llm down")}

	_, err := newWriter(client).WriteSection(context.Background(), engine.SectionRequest{Title: "1.1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "1.1") {
		t.Fatalf("error should name the section: %v", err)
	}
}

func TestSummarizePrompt(t *testing.T) {
	client := &stubLLM{response: "세 문장 요약."}

	summary, err := newWriter(client).Summarize(context.Background(), "<p>본문</p>")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary != "세 문장 요약." {
		t.Fatalf("unexpected summary: %q", summary)
	}

	prompt := client.messages[0][0].Content
	if !strings.Contains(prompt, "3-5 sentences") {
		t.Fatalf("summary prompt should ask for 3-5 sentences: %q", prompt)
	}
	if !strings.Contains(prompt, "<p>본문</p>") {
		t.Fatalf("summary prompt must embed the content: %q", prompt)
	}
}

func TestDraft(t *testing.T) {
	client := &stubLLM{response: "<h2>방안</h2>"}

	content, err := newWriter(client).Draft(context.Background(), "2.1 추진 전략")
	if err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if content != "<h2>방안</h2>" {
		t.Fatalf("unexpected content: %q", content)
	}
	if !strings.Contains(client.messages[0][1].Content, "2.1 추진 전략") {
		t.Fatalf("draft prompt must carry the title, got %q", client.messages[0][1].Content)
	}
}

func TestWriterRequiresClient(t *testing.T) {
	w := writer.New(nil, log.New(io.Discard, "", 0))

	if _, err := w.WriteSection(context.Background(), engine.SectionRequest{}); err == nil {
		t.Fatal("expected error for missing llm client")
	}
	if _, err := w.Summarize(context.Background(), "x"); err == nil {
		t.Fatal("expected error for missing llm client")
	}
	if _, err := w.Draft(context.Background(), "x"); err == nil {
		t.Fatal("expected error for missing llm client")
	}
}
