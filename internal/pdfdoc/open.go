// Package pdfdoc adapts pdfcpu to the document capabilities used by the
// accessibility analyzer.
package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// Opener opens PDF files with pdfcpu.
type Opener struct{}

func NewOpener() *Opener {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Opener{}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open reads the file into memory. Password failures map to
// accessibility.ErrPasswordProtected, reader failures to
// accessibility.ErrMalformed.
func (o *Opener) Open(ctx context.Context, path string) (accessibility.Document, error) {
	return o.OpenDocument(ctx, path)
}

// OpenDocument is Open with the concrete return type, for callers that need
// image access.
func (o *Opener) OpenDocument(ctx context.Context, path string) (*Document, error) {
	pctx, err := read(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Document{ctx: pctx, path: path}, nil
}

func read(ctx context.Context, path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pctx, err := pdfcpu.ReadWithContext(ctx, f, newConfiguration())
	if err != nil {
		return nil, classify(ctx, err)
	}
	return pctx, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, pdfcpu.ErrWrongPassword):
		return fmt.Errorf("%w: %w", accessibility.ErrPasswordProtected, err)
	default:
		return fmt.Errorf("%w: %w", accessibility.ErrMalformed, err)
	}
}

// Document is a read-only pdfcpu context.
type Document struct {
	ctx  *model.Context
	path string
}

func (d *Document) PageCount() (int, error) {
	if err := d.ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("%w: %w", accessibility.ErrMalformed, err)
	}
	return d.ctx.PageCount, nil
}

func (d *Document) Version() string {
	if d.ctx.HeaderVersion == nil && d.ctx.RootVersion == nil {
		return ""
	}
	return d.ctx.VersionString()
}

func (d *Document) Encrypted() bool {
	return d.ctx.Encrypt != nil
}

func (d *Document) Marked() bool {
	cat, err := d.ctx.Catalog()
	if err != nil {
		return false
	}
	mi, err := d.ctx.DereferenceDict(cat["MarkInfo"])
	if err != nil || mi == nil {
		return false
	}
	o, err := d.ctx.Dereference(mi["Marked"])
	if err != nil {
		return false
	}
	b, ok := o.(types.Boolean)
	return ok && b.Value()
}

func (d *Document) Language() string {
	cat, err := d.ctx.Catalog()
	if err != nil {
		return ""
	}
	return text(d.ctx.XRefTable, cat["Lang"])
}

func (d *Document) Title() string {
	if d.ctx.Info == nil {
		return ""
	}
	info, err := d.ctx.DereferenceDict(*d.ctx.Info)
	if err != nil || info == nil {
		return ""
	}
	return text(d.ctx.XRefTable, info["Title"])
}

// StructTree returns the structure graph rooted at /StructTreeRoot.
func (d *Document) StructTree() (accessibility.Graph, bool) {
	cat, err := d.ctx.Catalog()
	if err != nil {
		return nil, false
	}
	obj, found := cat.Find("StructTreeRoot")
	if !found || obj == nil {
		return nil, false
	}
	root, err := d.ctx.DereferenceDict(obj)
	if err != nil || root == nil {
		return nil, false
	}
	return newGraph(d.ctx.XRefTable, root), true
}

func (d *Document) Close() error {
	d.ctx = nil
	return nil
}

// text resolves string, hex string and name objects. Anything else is "".
func text(xref *model.XRefTable, o types.Object) string {
	o, err := xref.Dereference(o)
	if err != nil || o == nil {
		return ""
	}
	switch v := o.(type) {
	case types.Name:
		return v.Value()
	case types.StringLiteral, types.HexLiteral:
		s, err := model.Text(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}
