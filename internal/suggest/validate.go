package suggest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
)

const (
	MinAltTextLen = 3
	MaxAltTextLen = 300
)

var (
	ErrDecorative = errors.New("suggest: image is decorative")
	ErrRejected   = errors.New("suggest: suggestion rejected")
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

var labelPrefix = regexp.MustCompile(`(?i)^(alt(ernative)?[\s-]*text)\s*:\s*`)

var redundantPrefix = regexp.MustCompile(`(?i)^(an?\s+)?(image|picture|photo|graphic)\s+of\s+`)

// CleanAltText normalizes a model reply into alt text, or explains why it
// cannot be offered.
func CleanAltText(raw string) (string, error) {
	const quotes = "\"'` \n\t"
	s := strings.Trim(raw, quotes)
	s = labelPrefix.ReplaceAllString(s, "")
	s = strings.Trim(s, quotes)
	s = strings.Join(strings.Fields(s), " ")

	if strings.EqualFold(strings.TrimSuffix(s, "."), "DECORATIVE") {
		return "", ErrDecorative
	}
	if m := redundantPrefix.FindString(s); m != "" && len(m) < len(s) {
		r, size := utf8.DecodeRuneInString(s[len(m):])
		s = string(unicode.ToUpper(r)) + s[len(m)+size:]
	}
	s = accessibility.NormalizeAltText(s)

	n := utf8.RuneCountInString(s)
	if n < MinAltTextLen || n > MaxAltTextLen {
		return "", fmt.Errorf("%w: length %d out of range", ErrRejected, n)
	}
	if injectionPattern.MatchString(s) {
		return "", fmt.Errorf("%w: instruction-like content", ErrRejected)
	}
	return s, nil
}
