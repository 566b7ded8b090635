package accessibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	path := writeFile(t, 1024)
	v := NewValidator(&fakeOpener{doc: &fakeDoc{pages: 1}}, discardLogger())

	res := v.Validate(context.Background(), path)
	if res.Status != StatusValid || !res.CanProceed || !res.IsValidPDF {
		t.Fatalf("expected valid result, got %+v", res)
	}
	if res.FileSizeBytes != 1024 {
		t.Errorf("expected size 1024, got %d", res.FileSizeBytes)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("expected no errors or warnings, got %v %v", res.Errors, res.Warnings)
	}
}

func TestValidate_LargeFileWarns(t *testing.T) {
	path := writeFile(t, 10*1024*1024)
	v := NewValidator(&fakeOpener{doc: &fakeDoc{}}, discardLogger())

	res := v.Validate(context.Background(), path)
	if res.Status != StatusWarning || !res.CanProceed {
		t.Fatalf("expected proceeding warning, got %+v", res)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "Large file (10MB) may take longer" {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestValidate_VeryLargeFileWarnsTwice(t *testing.T) {
	path := writeFile(t, 50*1024*1024)
	v := NewValidator(&fakeOpener{doc: &fakeDoc{}}, discardLogger())

	res := v.Validate(context.Background(), path)
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", res.Warnings)
	}
	if res.Warnings[1] != "Very large file - extraction may timeout" {
		t.Errorf("unexpected second warning %q", res.Warnings[1])
	}
	if !res.CanProceed {
		t.Error("expected size warnings not to block")
	}
}

func TestValidate_PasswordProtected(t *testing.T) {
	path := writeFile(t, 10)
	v := NewValidator(&fakeOpener{err: fmt.Errorf("%w: wrong password", ErrPasswordProtected)}, discardLogger())

	res := v.Validate(context.Background(), path)
	if res.Status != StatusEncrypted || res.CanProceed || !res.IsEncrypted {
		t.Fatalf("expected encrypted rejection, got %+v", res)
	}
	if res.Errors[0] != "PDF is password-protected. Please decrypt before uploading." {
		t.Errorf("unexpected error %q", res.Errors[0])
	}
}

func TestValidate_OpenedButEncrypted(t *testing.T) {
	path := writeFile(t, 10)
	v := NewValidator(&fakeOpener{doc: &fakeDoc{encrypted: true}}, discardLogger())

	res := v.Validate(context.Background(), path)
	if res.Status != StatusEncrypted || res.CanProceed {
		t.Fatalf("expected encrypted rejection, got %+v", res)
	}
	if !res.IsValidPDF {
		t.Error("expected encrypted document to still be a valid PDF")
	}
	if res.Errors[0] != "PDF is encrypted. Please decrypt before uploading." {
		t.Errorf("unexpected error %q", res.Errors[0])
	}
}

func TestValidate_Malformed(t *testing.T) {
	path := writeFile(t, 10)
	cause := errors.New("no xref table")
	v := NewValidator(&fakeOpener{err: fmt.Errorf("%w: %w", ErrMalformed, cause)}, discardLogger())

	res := v.Validate(context.Background(), path)
	if res.Status != StatusInvalid || res.CanProceed || res.IsValidPDF {
		t.Fatalf("expected invalid rejection, got %+v", res)
	}
	if res.Errors[0] != "Invalid PDF: no xref table" {
		t.Errorf("unexpected error %q", res.Errors[0])
	}
}

func TestValidate_MissingFile(t *testing.T) {
	v := NewValidator(&fakeOpener{doc: &fakeDoc{}}, discardLogger())
	res := v.Validate(context.Background(), "/nonexistent/file.pdf")
	if res.Status != StatusInvalid || res.CanProceed {
		t.Fatalf("expected invalid result, got %+v", res)
	}
	if !strings.HasPrefix(res.Errors[0], "Invalid PDF: ") {
		t.Errorf("unexpected error %q", res.Errors[0])
	}
}
