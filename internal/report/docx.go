package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCX writes the report as a Word document.
func DOCX(in Input, w io.Writer) error {
	doc := docx.New().WithDefaultTheme().WithA4Page()

	heading := func(text, size string) {
		doc.AddParagraph().AddText(text).Bold().Size(size)
	}

	heading("Accessibility report: "+in.name(), "32")

	if in.Result != nil {
		for _, kv := range summary(in) {
			p := doc.AddParagraph()
			p.AddText(kv[0] + ": ").Bold()
			p.AddText(kv[1])
		}
	}

	heading("Findings", "28")
	findings := Findings(in)
	if len(findings) == 0 {
		doc.AddParagraph().AddText("No issues found.")
	}
	for _, f := range findings {
		p := doc.AddParagraph()
		p.AddText(fmt.Sprintf("[%s] ", strings.ToUpper(string(f.Severity)))).Bold().Color(severityColor(f.Severity))
		p.AddText(f.Message)
	}

	if in.Result != nil && len(in.Result.Images) > 0 {
		heading("Figures", "28")
		for i, img := range in.Result.Images {
			alt := "missing"
			if img.HasAltText {
				alt = *img.AltText
			}
			doc.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, alt))
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func severityColor(s Severity) string {
	switch s {
	case SeverityError:
		return "C00000"
	case SeverityWarning:
		return "B36B00"
	}
	return "404040"
}
