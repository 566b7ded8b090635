package accessibility

import (
	"context"
	"log/slog"
	"time"
)

// Node is one entry of the raw structure graph as ingested from the PDF.
// The set of implementations is closed: Sequence, *Element and Leaf.
type Node interface {
	structNode()
}

// Sequence is a /K array.
type Sequence []Node

// Element is a structure element dictionary. Tag is empty when the
// dictionary carries no /S entry.
type Element struct {
	// ID is the PDF object number, or 0 for a direct dictionary.
	ID         int
	Tag        string
	Alt        string
	ActualText string
	Title      string
	Lang       string
	HasKids    bool
}

// Leaf is anything that is neither an array nor a dictionary, such as a
// marked-content id.
type Leaf struct{}

func (Sequence) structNode() {}
func (*Element) structNode() {}
func (Leaf) structNode()     {}

// Graph exposes the logical structure tree of a document.
type Graph interface {
	// Root returns the /K entry of the structure tree root, or nil.
	Root(ctx context.Context) (Node, error)
	// Kids resolves the /K entry of e.
	Kids(ctx context.Context, e *Element) (Node, error)
}

// Document is the read-only capability the extractor needs.
type Document interface {
	PageCount() (int, error)
	Version() string
	Encrypted() bool
	// Marked reports /MarkInfo /Marked true.
	Marked() bool
	Language() string
	Title() string
	// StructTree returns false when the catalog has no /StructTreeRoot.
	StructTree() (Graph, bool)
	Close() error
}

// Opener opens documents from the filesystem.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Editor is the mutation capability used by remediation.
type Editor interface {
	// FindImage reports whether an image with the given ordinal exists.
	FindImage(ctx context.Context, index int) (bool, error)
	EnsureStructTreeRoot() error
	AppendFigure(altText string) error
	SetMarked() error
	// Save persists the document over its source.
	Save() error
	Close() error
}

// EditorOpener opens documents for mutation.
type EditorOpener interface {
	OpenEditor(ctx context.Context, path string) (Editor, error)
}

// ResultStore caches extraction results by cache key.
type ResultStore interface {
	Get(ctx context.Context, key string) (*ExtractionResult, bool, error)
	Put(ctx context.Context, key string, res *ExtractionResult, ttl time.Duration) error
}

func orDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
