package accessibility

// Metadata is the document-level language and title.
type Metadata struct {
	Language *string
	Title    *string
}

// ReadMetadata reads catalog /Lang and Info /Title. Missing values are nil.
func ReadMetadata(doc Document) Metadata {
	return Metadata{
		Language: optional(doc.Language()),
		Title:    optional(doc.Title()),
	}
}
