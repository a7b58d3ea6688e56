package extract

import "strings"

// DefaultOverviewLimit is how many leading pages are assumed to carry the
// project overview. Korean government RFPs front-load the summary tables.
const DefaultOverviewLimit = 15

// tocFallbackLimit bounds the page scan when no TOC keyword is found.
const tocFallbackLimit = 20

// tocKeywords mark pages that likely hold the document's table of contents.
var tocKeywords = []string{"목차", "목 차", "table of contents", "contents"}

// OverviewCandidates returns the first limit pages, the region the
// structured-overview extraction reads.
func OverviewCandidates(pages []Page, limit int) []Page {
	if limit <= 0 {
		limit = DefaultOverviewLimit
	}
	if len(pages) < limit {
		limit = len(pages)
	}
	return pages[:limit]
}

// TOCCandidates returns pages whose text mentions a TOC keyword, each with
// its following page since outlines often spill over. Returns nil when no
// keyword matches; callers fall back to the leading pages.
func TOCCandidates(pages []Page) []Page {
	picked := make([]Page, 0)
	taken := make(map[int]bool)
	for i, page := range pages {
		if !containsTOCKeyword(page.Text) {
			continue
		}
		if !taken[i] {
			picked = append(picked, page)
			taken[i] = true
		}
		if i+1 < len(pages) && !taken[i+1] {
			picked = append(picked, pages[i+1])
			taken[i+1] = true
		}
	}
	if len(picked) == 0 {
		return nil
	}
	return picked
}

// TOCFallback is the scan window used when TOCCandidates finds nothing.
func TOCFallback(pages []Page) []Page {
	if len(pages) < tocFallbackLimit {
		return pages
	}
	return pages[:tocFallbackLimit]
}

func containsTOCKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range tocKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
