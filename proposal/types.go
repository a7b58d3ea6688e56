package proposal

import (
	"time"
)

// SectionStatus tracks one TOC section through a generation run.
type SectionStatus string

const (
	SectionPending    SectionStatus = "pending"
	SectionGenerating SectionStatus = "generating"
	SectionDone       SectionStatus = "done"
)

// Status is the lifecycle of a proposal row.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusGeneratingTOC      Status = "generating_toc"
	StatusTOCGenerated       Status = "toc_generated"
	StatusTOCConfirmed       Status = "toc_confirmed"
	StatusGeneratingSections Status = "generating_sections"
	StatusCompleted          Status = "completed"
)

// Overview is the structured project metadata extracted from an RFP.
type Overview struct {
	ProjectName   string   `json:"project_name"`
	Budget        string   `json:"budget"`
	Period        string   `json:"period"`
	KeyObjectives []string `json:"key_objectives"`
	Summary       string   `json:"summary"`
}

// Section is a leaf of the TOC. Title doubles as the lookup key for its
// writing guideline.
type Section struct {
	Title     string        `json:"title"`
	Guideline string        `json:"guideline"`
	Status    SectionStatus `json:"status"`
}

type Chapter struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// TOC is an ordered list of chapters. Ordering is significant: sections are
// generated strictly in document order.
type TOC []Chapter

// Flatten returns pointers to every leaf section in document order. Status
// updates through the returned slice are visible in the TOC itself.
func (t TOC) Flatten() []*Section {
	sections := make([]*Section, 0, t.SectionCount())
	for c := range t {
		for s := range t[c].Sections {
			sections = append(sections, &t[c].Sections[s])
		}
	}
	return sections
}

func (t TOC) SectionCount() int {
	count := 0
	for _, chapter := range t {
		count += len(chapter.Sections)
	}
	return count
}

// Proposal is one row of the naraworks_proposals table.
type Proposal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	TOC       TOC       `json:"toc"`
	Overview  *Overview `json:"overview,omitempty"`
	Status    Status    `json:"status"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update carries the mutable fields of a proposal; nil means "leave as is".
type Update struct {
	Title    *string
	Content  *string
	TOC      *TOC
	Overview *Overview
	Status   *Status
}

// Knowledge is one row of the naraworks_knowledge table: the full extracted
// text of an uploaded company-background document.
type Knowledge struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
