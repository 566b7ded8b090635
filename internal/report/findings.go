// Package report turns an extraction result into findings and renders them
// as Markdown, HTML, DOCX, YAML and Parquet rows.
package report

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/textlayer"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// LongDocumentPages is the page count above which bookmarks are expected.
const LongDocumentPages = 20

// Finding is one accessibility issue.
type Finding struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// Input bundles what a report is built from. ActualImageCount and Text are
// optional.
type Input struct {
	Filename         string
	Result           *accessibility.ExtractionResult
	ActualImageCount *int
	Text             *textlayer.Summary
}

// Findings derives the issues for in, errors first.
func Findings(in Input) []Finding {
	res := in.Result
	if res == nil {
		return []Finding{{Code: "no_result", Severity: SeverityError, Message: "No extraction result available"}}
	}

	var out []Finding
	add := func(code string, sev Severity, format string, args ...any) {
		out = append(out, Finding{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if !res.Success {
		msg := "Extraction failed"
		if len(res.Errors) > 0 {
			msg = strings.Join(res.Errors, "; ")
		}
		code := "extraction_failed"
		if res.TimedOut {
			code = "extraction_timed_out"
		}
		add(code, SeverityError, "%s", msg)
		return out
	}

	if !res.IsTagged {
		add("not_tagged", SeverityError, "Document is not marked as tagged (/MarkInfo /Marked)")
	}
	if !res.HasStructureTree {
		add("no_structure_tree", SeverityError, "Document has no logical structure tree")
	}
	if res.DocumentLanguage == nil || strings.TrimSpace(*res.DocumentLanguage) == "" {
		add("missing_language", SeverityError, "Document language (/Lang) is not set")
	} else if _, err := language.Parse(*res.DocumentLanguage); err != nil {
		add("invalid_language", SeverityWarning, "Document language %q is not a valid language tag", *res.DocumentLanguage)
	}
	if res.DocumentTitle == nil || strings.TrimSpace(*res.DocumentTitle) == "" {
		add("missing_title", SeverityWarning, "Document title is not set")
	}
	if res.ImagesWithoutAltText > 0 {
		add("figures_missing_alt", SeverityError, "%d of %d figures have no alternate text", res.ImagesWithoutAltText, res.TotalImages)
	}
	if in.ActualImageCount != nil && *in.ActualImageCount > res.TotalImages {
		add("untagged_images", SeverityWarning, "%d images in page content but only %d Figure elements", *in.ActualImageCount, res.TotalImages)
	}
	for _, skip := range headingSkips(res.StructureTree) {
		add("heading_skip", SeverityWarning, "Heading level jumps from H%d to H%d", skip[0], skip[1])
	}
	if t := in.Text; t != nil {
		if n := len(t.PagesNoText); n > 0 {
			add("pages_without_text", SeverityWarning, "%d page(s) without extractable text: %s", n, pageList(t.PagesNoText, 10))
		}
		if t.PageCount > LongDocumentPages && t.OutlineEntries == 0 {
			add("missing_bookmarks", SeverityWarning, "Document has %d pages but no bookmarks", t.PageCount)
		}
	}
	for _, w := range res.Warnings {
		add("extraction_warning", SeverityInfo, "%s", w)
	}

	sortBySeverity(out)
	return out
}

// headingSkips returns (from, to) pairs where a heading is more than one
// level deeper than the previous heading in reading order.
func headingSkips(root *accessibility.StructureElement) [][2]int {
	var (
		skips [][2]int
		prev  int
	)
	root.Walk(func(e *accessibility.StructureElement) bool {
		level, ok := accessibility.HeadingLevel(e.ElementType)
		if !ok {
			return true
		}
		if level > prev+1 {
			skips = append(skips, [2]int{prev, level})
		}
		prev = level
		return true
	})
	return skips
}

func pageList(pages []int, limit int) string {
	parts := make([]string, 0, limit+1)
	for i, p := range pages {
		if i == limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ", ")
}

func rank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	}
	return 2
}

func sortBySeverity(f []Finding) {
	slices.SortStableFunc(f, func(a, b Finding) int { return rank(a.Severity) - rank(b.Severity) })
}
