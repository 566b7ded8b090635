package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Editor mutates the structure tree of a validated pdfcpu context and
// writes it back over the source file.
type Editor struct {
	ctx     *model.Context
	path    string
	rootRef *types.IndirectRef
}

// OpenEditor reads and validates the file for writing.
func (o *Opener) OpenEditor(ctx context.Context, path string) (accessibility.Editor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pctx, err := api.ReadAndValidate(f, newConfiguration())
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &Editor{ctx: pctx, path: path}, nil
}

func (e *Editor) FindImage(ctx context.Context, index int) (bool, error) {
	if index < 0 {
		return false, nil
	}
	found := false
	err := eachImage(ctx, e.ctx, func(info ImageInfo, _ *types.StreamDict) bool {
		found = info.ID == index
		return found
	})
	return found, err
}

// EnsureStructTreeRoot creates /StructTreeRoot when missing and makes sure
// its /K is an array.
func (e *Editor) EnsureStructTreeRoot() error {
	cat, err := e.ctx.Catalog()
	if err != nil {
		return err
	}

	if ref := cat.IndirectRefEntry("StructTreeRoot"); ref != nil {
		e.rootRef = ref
	} else {
		if _, found := cat.Find("StructTreeRoot"); found {
			return errors.New("StructTreeRoot is not an indirect object")
		}
		d := types.NewDict()
		d.InsertName("Type", "StructTreeRoot")
		d.Insert("K", types.Array{})
		ref, err := e.ctx.IndRefForNewObject(d)
		if err != nil {
			return fmt.Errorf("create StructTreeRoot: %w", err)
		}
		cat.Insert("StructTreeRoot", *ref)
		e.rootRef = ref
	}

	root, err := e.root()
	if err != nil {
		return err
	}
	k, found := root.Find("K")
	if !found || k == nil {
		root.Update("K", types.Array{})
		return nil
	}
	if arr, err := e.ctx.DereferenceArray(k); err == nil && arr != nil {
		return nil
	}
	root.Update("K", types.Array{k})
	return nil
}

// AppendFigure adds an indirect Figure element with /Alt under the root.
func (e *Editor) AppendFigure(altText string) error {
	root, err := e.root()
	if err != nil {
		return err
	}

	alt, err := types.EscapedUTF16String(altText)
	if err != nil {
		return fmt.Errorf("encode alt text: %w", err)
	}
	fig := types.NewDict()
	fig.InsertName("Type", "StructElem")
	fig.InsertName("S", "Figure")
	fig.Insert("P", *e.rootRef)
	fig.Insert("Alt", types.StringLiteral(*alt))

	ref, err := e.ctx.IndRefForNewObject(fig)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}

	k := root["K"]
	if kref, ok := k.(types.IndirectRef); ok {
		arr, err := e.ctx.DereferenceArray(kref)
		if err != nil {
			return err
		}
		entry, ok := e.ctx.FindTableEntryForIndRef(&kref)
		if !ok {
			return fmt.Errorf("missing /K object %d", kref.ObjectNumber.Value())
		}
		entry.Object = append(arr, *ref)
		return nil
	}
	arr, _ := k.(types.Array)
	root.Update("K", append(arr, *ref))
	return nil
}

// SetMarked sets /MarkInfo /Marked true, creating /MarkInfo when needed.
func (e *Editor) SetMarked() error {
	cat, err := e.ctx.Catalog()
	if err != nil {
		return err
	}
	mi, err := e.ctx.DereferenceDict(cat["MarkInfo"])
	if err != nil {
		return fmt.Errorf("MarkInfo: %w", err)
	}
	if mi == nil {
		mi = types.NewDict()
		cat.Update("MarkInfo", mi)
	}
	mi.Update("Marked", types.Boolean(true))
	return nil
}

// Save writes to a temporary file beside the source and renames it over
// the source.
func (e *Editor) Save() error {
	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".pdfaccess-*.pdf")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := api.WriteContext(e.ctx, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, e.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (e *Editor) Close() error {
	e.ctx = nil
	return nil
}

func (e *Editor) root() (types.Dict, error) {
	if e.rootRef == nil {
		return nil, errors.New("StructTreeRoot not initialized")
	}
	d, err := e.ctx.DereferenceDict(*e.rootRef)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.New("StructTreeRoot is null")
	}
	return d, nil
}
