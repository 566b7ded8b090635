// Package textlayer inspects the extractable text and outline of a PDF.
package textlayer

import (
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Summary is what a screen reader would find beyond the structure tree.
type Summary struct {
	PageCount      int   `json:"page_count"`
	PagesWithText  int   `json:"pages_with_text"`
	PagesNoText    []int `json:"pages_without_text"`
	OutlineEntries int   `json:"outline_entries"`
	Characters     int   `json:"characters"`
}

// Probe reads every page's plain text and counts outline entries. The
// reader panics on some damaged files; that is reported as an error.
func Probe(path string) (s *Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("probe %s: %v", path, r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	s = &Summary{PageCount: reader.NumPage(), PagesNoText: []int{}}
	for i := 1; i <= s.PageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			s.PagesNoText = append(s.PagesNoText, i)
			continue
		}
		text, err := page.GetPlainText(nil)
		text = strings.TrimSpace(text)
		if err != nil || text == "" {
			s.PagesNoText = append(s.PagesNoText, i)
			continue
		}
		s.PagesWithText++
		s.Characters += len([]rune(text))
	}

	s.OutlineEntries = countOutline(reader.Outline()) - 1
	if s.OutlineEntries < 0 {
		s.OutlineEntries = 0
	}
	return s, nil
}

// countOutline includes o itself.
func countOutline(o pdflib.Outline) int {
	n := 1
	for _, c := range o.Child {
		n += countOutline(c)
	}
	return n
}
