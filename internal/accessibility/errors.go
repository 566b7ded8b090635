package accessibility

import "errors"

var (
	// ErrPasswordProtected is returned by an Opener when the document needs a
	// password that was not supplied.
	ErrPasswordProtected = errors.New("pdfaccess: document is password-protected")
	// ErrEncrypted marks a document that opened but reports encryption.
	ErrEncrypted = errors.New("pdfaccess: document is encrypted")
	// ErrMalformed wraps structural parse failures from the PDF reader.
	ErrMalformed = errors.New("pdfaccess: malformed document")
	// ErrStructureCycle is returned by the walker when an element is reached twice.
	ErrStructureCycle = errors.New("pdfaccess: structure tree cycle")
	// ErrImageNotFound is returned for an image ordinal past the last image.
	ErrImageNotFound = errors.New("pdfaccess: image not found")
	// ErrEmptyAltText rejects alt text that is blank after normalization.
	ErrEmptyAltText = errors.New("pdfaccess: alt text is required")
	// ErrPersist wraps failures writing the remediated document back.
	ErrPersist = errors.New("pdfaccess: persist failed")
)
