package accessibility

import (
	"context"
	"fmt"
)

// MaxStructureDepth is the deepest level materialized by WalkStructure.
const MaxStructureDepth = 20

type walkItem struct {
	node   Node
	depth  int
	parent *StructureElement
}

// WalkStructure normalizes the structure graph into a tree of
// StructureElements. It returns nil when the graph holds no tagged element.
// Multiple top-level elements are wrapped in a synthetic "Root"; depths are
// then measured from that root and the ceiling applies to them.
func WalkStructure(ctx context.Context, g Graph) (*StructureElement, error) {
	if g == nil {
		return nil, nil
	}
	top, err := walk(ctx, g, 0)
	if err != nil {
		return nil, err
	}
	switch len(top) {
	case 0:
		return nil, nil
	case 1:
		return top[0], nil
	}

	// Walk again one level down so nothing below the synthetic root
	// exceeds MaxStructureDepth. The top-level elements are unchanged.
	top, err = walk(ctx, g, 1)
	if err != nil {
		return nil, err
	}
	return &StructureElement{
		ElementType:       "Root",
		Depth:             0,
		ReadingOrderIndex: 0,
		Children:          top,
	}, nil
}

// walk materializes the top-level elements with their subtrees, starting
// at depth base.
func walk(ctx context.Context, g Graph, base int) ([]*StructureElement, error) {
	root, err := g.Root(ctx)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	var (
		top     []*StructureElement
		counter int
		visited = map[int]bool{}
		stack   = []walkItem{{node: root, depth: base}}
	)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.depth > MaxStructureDepth {
			continue
		}

		switch n := item.node.(type) {
		case Sequence:
			for i := len(n) - 1; i >= 0; i-- {
				stack = append(stack, walkItem{node: n[i], depth: item.depth, parent: item.parent})
			}

		case *Element:
			if n == nil {
				continue
			}
			if n.ID != 0 {
				if visited[n.ID] {
					return nil, fmt.Errorf("%w: object %d", ErrStructureCycle, n.ID)
				}
				visited[n.ID] = true
			}

			if n.Tag == "" {
				if !n.HasKids {
					continue
				}
				kids, err := g.Kids(ctx, n)
				if err != nil {
					return nil, err
				}
				if kids != nil {
					stack = append(stack, walkItem{node: kids, depth: item.depth, parent: item.parent})
				}
				continue
			}

			counter++
			el := &StructureElement{
				ElementType:       n.Tag,
				Depth:             item.depth,
				ReadingOrderIndex: counter,
				AltText:           optional(n.Alt),
				ActualText:        optional(n.ActualText),
				Title:             optional(n.Title),
				Lang:              optional(n.Lang),
				Children:          []*StructureElement{},
			}
			if item.parent != nil {
				pt := item.parent.ElementType
				el.ParentType = &pt
				item.parent.Children = append(item.parent.Children, el)
			} else {
				top = append(top, el)
			}

			if n.HasKids {
				kids, err := g.Kids(ctx, n)
				if err != nil {
					return nil, err
				}
				if kids != nil {
					stack = append(stack, walkItem{node: kids, depth: item.depth + 1, parent: el})
				}
			}
		}
	}
	return top, nil
}
