package suggest

import (
	"fmt"
	"strings"
)

const SystemPrompt = `You write alternative text for images in PDF documents so that screen reader users get the same information as sighted readers.`

const AltTextPrompt = `Write alternative text for the attached image.

Rules:
- One or two sentences, at most 250 characters
- Describe what the image conveys, not how it looks, unless the appearance is the point
- For charts and graphs, state the type and the main trend or comparison
- Transcribe short visible text that matters
- Do not start with "Image of", "Picture of" or "Graphic of"
- If the image is purely decorative, answer exactly: DECORATIVE

Respond with ONLY the alt text, no quotes and no other text.`

// Context describes where the image appears.
type Context struct {
	DocumentTitle string
	PageNumber    int
	Width         int
	Height        int
	CurrentAlt    string
}

// BuildPrompt appends the image context to AltTextPrompt.
func BuildPrompt(c Context) string {
	var sb strings.Builder
	sb.WriteString(AltTextPrompt)
	sb.WriteString("\n\n---\n")
	if c.DocumentTitle != "" {
		fmt.Fprintf(&sb, "Document: %q\n", c.DocumentTitle)
	}
	if c.PageNumber > 0 {
		fmt.Fprintf(&sb, "Page: %d\n", c.PageNumber)
	}
	if c.Width > 0 && c.Height > 0 {
		fmt.Fprintf(&sb, "Size: %dx%d pixels\n", c.Width, c.Height)
	}
	if c.CurrentAlt != "" {
		fmt.Fprintf(&sb, "Current alt text (improve it): %q\n", c.CurrentAlt)
	}
	sb.WriteString("---")
	return sb.String()
}
