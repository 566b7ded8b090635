package report

import (
	"fmt"
	"strings"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
)

// maxTreeLines caps the structure outline in rendered reports.
const maxTreeLines = 200

// Markdown renders the report as GitHub-flavored Markdown.
func Markdown(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Accessibility report: %s\n\n", cell(in.name()))

	res := in.Result
	if res != nil {
		b.WriteString("| Property | Value |\n|---|---|\n")
		for _, kv := range summary(in) {
			fmt.Fprintf(&b, "| %s | %s |\n", kv[0], cell(kv[1]))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	findings := Findings(in)
	if len(findings) == 0 {
		b.WriteString("No issues found.\n\n")
	}
	for _, f := range findings {
		fmt.Fprintf(&b, "- **%s** `%s`: %s\n", f.Severity, f.Code, f.Message)
	}
	if len(findings) > 0 {
		b.WriteString("\n")
	}

	if res != nil && len(res.Images) > 0 {
		b.WriteString("## Figures\n\n| # | Alt text |\n|---|---|\n")
		for i, img := range res.Images {
			alt := "*missing*"
			if img.HasAltText {
				alt = cell(*img.AltText)
			}
			fmt.Fprintf(&b, "| %d | %s |\n", i+1, alt)
		}
		b.WriteString("\n")
	}

	if res != nil && res.StructureTree != nil {
		b.WriteString("## Structure\n\n")
		lines := 0
		res.StructureTree.Walk(func(e *accessibility.StructureElement) bool {
			if lines == maxTreeLines {
				b.WriteString("- ...\n")
				lines++
			}
			if lines > maxTreeLines {
				return false
			}
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", e.Depth), element(e))
			lines++
			return true
		})
	}
	return b.String()
}

func (in Input) name() string {
	if in.Filename != "" {
		return in.Filename
	}
	if in.Result != nil {
		return in.Result.PDFFilename
	}
	return "document"
}

// summary lists the headline facts of the result in display order.
func summary(in Input) [][2]string {
	res := in.Result
	rows := [][2]string{
		{"Pages", fmt.Sprint(res.PageCount)},
		{"PDF version", orNone(res.PDFVersion)},
		{"File size", fmt.Sprintf("%d bytes", res.FileSizeBytes)},
		{"Tagged", yesNo(res.IsTagged)},
		{"Structure tree", yesNo(res.HasStructureTree)},
		{"Language", orNone(deref(res.DocumentLanguage))},
		{"Title", orNone(deref(res.DocumentTitle))},
		{"Figures", fmt.Sprintf("%d (%d with alt text, %d without)", res.TotalImages, res.ImagesWithAltText, res.ImagesWithoutAltText)},
	}
	if in.ActualImageCount != nil {
		rows = append(rows, [2]string{"Images in content", fmt.Sprint(*in.ActualImageCount)})
	}
	heading := "none"
	if res.MaxHeadingLevel != nil {
		heading = fmt.Sprintf("H%d", *res.MaxHeadingLevel)
	}
	rows = append(rows,
		[2]string{"Deepest heading", heading},
		[2]string{"Structure types", orNone(strings.Join(res.StructureTypesFound, ", "))},
	)
	return rows
}

func element(e *accessibility.StructureElement) string {
	s := "`" + e.ElementType + "`"
	if e.AltText != nil {
		s += fmt.Sprintf(" alt=%q", *e.AltText)
	}
	if e.Lang != nil {
		s += " lang=" + *e.Lang
	}
	return s
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
