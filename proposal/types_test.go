package proposal_test

import (
	"testing"

	"github.com/bigshift-projects/naraworks/proposal"
)

func TestFlattenPreservesDocumentOrder(t *testing.T) {
	toc := proposal.TOC{
		{Title: "I", Sections: []proposal.Section{{Title: "1.1"}, {Title: "1.2"}}},
		{Title: "II"},
		{Title: "III", Sections: []proposal.Section{{Title: "3.1"}}},
	}

	sections := toc.Flatten()
	if len(sections) != 3 {
		t.Fatalf("expected 3 leaf sections, got %d", len(sections))
	}
	want := []string{"1.1", "1.2", "3.1"}
	for i, section := range sections {
		if section.Title != want[i] {
			t.Fatalf("section %d out of order: %q", i, section.Title)
		}
	}
}

func TestFlattenReturnsPointersIntoTOC(t *testing.T) {
	toc := proposal.TOC{
		{Title: "I", Sections: []proposal.Section{{Title: "1.1", Status: proposal.SectionPending}}},
	}

	toc.Flatten()[0].Status = proposal.SectionDone

	if toc[0].Sections[0].Status != proposal.SectionDone {
		t.Fatal("status update through Flatten must be visible in the TOC")
	}
}

func TestSectionCount(t *testing.T) {
	if got := (proposal.TOC{}).SectionCount(); got != 0 {
		t.Fatalf("empty TOC should count 0, got %d", got)
	}

	toc := proposal.TOC{
		{Title: "I", Sections: []proposal.Section{{Title: "a"}, {Title: "b"}}},
		{Title: "II", Sections: []proposal.Section{{Title: "c"}}},
	}
	if got := toc.SectionCount(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
