package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is one page of extracted RFP text. Numbers are 1-based.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Pages extracts text page by page from raw PDF bytes. Pages that yield no
// text are dropped; an error is returned only when the document itself
// cannot be opened.
func Pages(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]Page, 0, total)
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	return pages, nil
}

// FullText joins every page in order into one document string.
func FullText(pages []Page) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}
