package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders the Markdown report as a standalone HTML page.
func HTML(in Input) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(in)), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>Accessibility report: %s</title>\n</head>\n<body>\n<main>\n",
		html.EscapeString(in.name()))
	out.Write(body.Bytes())
	out.WriteString("</main>\n</body>\n</html>\n")
	return out.Bytes(), nil
}
