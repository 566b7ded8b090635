package accessibility

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Remediator inserts alt-text-bearing Figure elements into documents.
type Remediator struct {
	opener EditorOpener
	log    *slog.Logger
}

// NewRemediator returns a Remediator that edits documents through opener.
func NewRemediator(opener EditorOpener, log *slog.Logger) *Remediator {
	return &Remediator{opener: opener, log: orDefault(log)}
}

// NormalizeAltText trims surrounding whitespace and applies NFC.
func NormalizeAltText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// TagImage attaches altText to the image at the given 0-based ordinal and
// saves the document over path. The association is by enumeration order
// only. Failures are logged and reported as false.
func (r *Remediator) TagImage(ctx context.Context, path string, index int, altText string) bool {
	log := r.log.With("path", path, "image_id", index)
	if err := r.tag(ctx, path, index, altText); err != nil {
		log.Error("tag image failed", "error", err)
		return false
	}
	log.Info("tagged image")
	return true
}

func (r *Remediator) tag(ctx context.Context, path string, index int, altText string) error {
	altText = NormalizeAltText(altText)
	if altText == "" {
		return ErrEmptyAltText
	}

	ed, err := r.opener.OpenEditor(ctx, path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer ed.Close()

	found, err := ed.FindImage(ctx, index)
	if err != nil {
		return fmt.Errorf("search images: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: id %d", ErrImageNotFound, index)
	}

	if err := ed.EnsureStructTreeRoot(); err != nil {
		return fmt.Errorf("structure tree root: %w", err)
	}
	if err := ed.AppendFigure(altText); err != nil {
		return fmt.Errorf("append figure: %w", err)
	}
	if err := ed.SetMarked(); err != nil {
		return fmt.Errorf("mark info: %w", err)
	}
	if err := ed.Save(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
