package accessibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

const (
	largeFileBytes     = 10 * 1024 * 1024
	veryLargeFileBytes = 50 * 1024 * 1024
)

// Validator gates a candidate upload before analysis.
type Validator struct {
	opener Opener
	log    *slog.Logger
}

// NewValidator returns a Validator reading documents through opener.
func NewValidator(opener Opener, log *slog.Logger) *Validator {
	return &Validator{opener: opener, log: orDefault(log)}
}

// Validate checks size, encryption and structural integrity of the file at
// path. Every failure is reported in the result.
func (v *Validator) Validate(ctx context.Context, path string) *ValidationResult {
	res := &ValidationResult{
		Status:     StatusValid,
		CanProceed: true,
		Errors:     []string{},
		Warnings:   []string{},
	}

	info, err := os.Stat(path)
	if err != nil {
		res.invalid(fmt.Sprintf("Invalid PDF: %s", err))
		return res
	}
	res.FileSizeBytes = info.Size()

	if res.FileSizeBytes >= largeFileBytes {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Large file (%dMB) may take longer", res.FileSizeBytes/1024/1024))
		res.Status = StatusWarning
	}
	if res.FileSizeBytes >= veryLargeFileBytes {
		res.Warnings = append(res.Warnings, "Very large file - extraction may timeout")
	}

	doc, err := v.opener.Open(ctx, path)
	if err != nil {
		if errors.Is(err, ErrPasswordProtected) {
			res.encrypted("PDF is password-protected. Please decrypt before uploading.")
		} else {
			res.invalid(fmt.Sprintf("Invalid PDF: %s", causeOf(err)))
		}
		v.log.Info("validation rejected", "path", path, "status", res.Status, "error", err)
		return res
	}
	defer doc.Close()

	res.IsValidPDF = true
	if doc.Encrypted() {
		res.encrypted("PDF is encrypted. Please decrypt before uploading.")
	}
	return res
}

func (r *ValidationResult) encrypted(msg string) {
	r.IsEncrypted = true
	r.Status = StatusEncrypted
	r.CanProceed = false
	r.Errors = append(r.Errors, msg)
}

func (r *ValidationResult) invalid(msg string) {
	r.IsValidPDF = false
	r.Status = StatusInvalid
	r.CanProceed = false
	r.Errors = append(r.Errors, msg)
}

// causeOf strips the sentinel prefix from errors wrapped as
// "<sentinel>: <cause>" so messages read like the underlying reader error.
func causeOf(err error) string {
	var w interface{ Unwrap() []error }
	if errors.As(err, &w) {
		errs := w.Unwrap()
		if len(errs) > 1 {
			return errs[len(errs)-1].Error()
		}
	}
	return err.Error()
}
