package pdfdoc

import (
	"context"
	"fmt"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// graph ingests structure elements lazily: each element keeps its raw /K
// object until the walker asks for it.
type graph struct {
	xref *model.XRefTable
	root types.Dict
	kids map[*accessibility.Element]types.Object

	// arrays holds the indirect /K arrays expanded since the last Root
	// call. Element dictionaries are tracked by the walker.
	arrays map[int]bool
}

func newGraph(xref *model.XRefTable, root types.Dict) *graph {
	return &graph{
		xref: xref,
		root: root,
		kids: map[*accessibility.Element]types.Object{},
	}
}

// Root starts a new walk.
func (g *graph) Root(ctx context.Context) (accessibility.Node, error) {
	g.arrays = map[int]bool{}
	k, found := g.root.Find("K")
	if !found || !present(k) {
		return nil, nil
	}
	return g.node(k)
}

func (g *graph) Kids(ctx context.Context, e *accessibility.Element) (accessibility.Node, error) {
	k, ok := g.kids[e]
	if !ok {
		return nil, nil
	}
	if g.arrays == nil {
		g.arrays = map[int]bool{}
	}
	return g.node(k)
}

// node converts one /K value. Nested arrays are expanded eagerly; an
// indirect array reached twice in one walk is a cycle.
func (g *graph) node(o types.Object) (accessibility.Node, error) {
	id := 0
	if ref, ok := o.(types.IndirectRef); ok {
		id = ref.ObjectNumber.Value()
		var err error
		o, err = g.xref.Dereference(ref)
		if err != nil {
			return nil, fmt.Errorf("resolve object %d: %w", id, err)
		}
	}

	switch v := o.(type) {
	case types.Array:
		if id != 0 {
			if g.arrays[id] {
				return nil, fmt.Errorf("%w: array object %d", accessibility.ErrStructureCycle, id)
			}
			g.arrays[id] = true
		}
		seq := make(accessibility.Sequence, 0, len(v))
		for _, item := range v {
			n, err := g.node(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, n)
		}
		return seq, nil

	case types.Dict:
		e := &accessibility.Element{
			ID:         id,
			Alt:        text(g.xref, v["Alt"]),
			ActualText: text(g.xref, v["ActualText"]),
			Title:      text(g.xref, v["T"]),
			Lang:       text(g.xref, v["Lang"]),
		}
		if s, err := g.xref.Dereference(v["S"]); err == nil {
			if name, ok := s.(types.Name); ok {
				e.Tag = name.Value()
			}
		}
		if k, found := v.Find("K"); found && present(k) {
			e.HasKids = true
			g.kids[e] = k
		}
		return e, nil
	}
	return accessibility.Leaf{}, nil
}

// present reports whether a /K value has content: null, empty arrays,
// empty dictionaries and marked-content id 0 do not.
func present(o types.Object) bool {
	switch v := o.(type) {
	case nil:
		return false
	case types.Array:
		return len(v) > 0
	case types.Dict:
		return len(v) > 0
	case types.Integer:
		return v.Value() != 0
	}
	return true
}
