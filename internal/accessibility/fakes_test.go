package accessibility

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGraph is an in-memory structure graph.
type fakeGraph struct {
	root Node
	kids map[*Element]Node
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{kids: map[*Element]Node{}}
}

func (g *fakeGraph) el(tag string, kids ...Node) *Element {
	e := &Element{Tag: tag}
	if len(kids) > 0 {
		e.HasKids = true
		g.kids[e] = Sequence(kids)
	}
	return e
}

func (g *fakeGraph) Root(ctx context.Context) (Node, error) { return g.root, nil }

func (g *fakeGraph) Kids(ctx context.Context, e *Element) (Node, error) {
	return g.kids[e], nil
}

type fakeDoc struct {
	pages     int
	pagesErr  error
	version   string
	encrypted bool
	marked    bool
	lang      string
	title     string
	graph     Graph
	block     chan struct{}

	mu     sync.Mutex
	closed bool
}

func (d *fakeDoc) PageCount() (int, error) {
	if d.block != nil {
		<-d.block
	}
	return d.pages, d.pagesErr
}
func (d *fakeDoc) Version() string  { return d.version }
func (d *fakeDoc) Encrypted() bool  { return d.encrypted }
func (d *fakeDoc) Marked() bool     { return d.marked }
func (d *fakeDoc) Language() string { return d.lang }
func (d *fakeDoc) Title() string    { return d.title }
func (d *fakeDoc) StructTree() (Graph, bool) {
	return d.graph, d.graph != nil
}
func (d *fakeDoc) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
func (d *fakeDoc) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeOpener struct {
	doc   *fakeDoc
	err   error
	calls int
}

func (o *fakeOpener) Open(ctx context.Context, path string) (Document, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

type memStore struct {
	mu   sync.Mutex
	data map[string]*ExtractionResult
	puts int
}

func (s *memStore) Get(ctx context.Context, key string) (*ExtractionResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data[key]
	return r, ok, nil
}

func (s *memStore) Put(ctx context.Context, key string, res *ExtractionResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = map[string]*ExtractionResult{}
	}
	s.data[key] = res
	s.puts++
	return nil
}

// writeFile creates a file of the given size under t.TempDir.
func writeFile(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if size > 0 {
		if err := f.Truncate(size); err != nil {
			t.Fatalf("truncate: %v", err)
		}
	}
	return path
}
