package accessibility

import (
	"context"
	"testing"
)

func mustWalk(t *testing.T, g *fakeGraph) *StructureElement {
	t.Helper()
	tree, err := WalkStructure(context.Background(), g)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return tree
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		tag   string
		level int
		ok    bool
	}{
		{"H", 1, true},
		{"H1", 1, true},
		{"H6", 6, true},
		{"H12", 12, true},
		{"H2a", 0, false},
		{"Header", 0, false},
		{"P", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		level, ok := HeadingLevel(tt.tag)
		if level != tt.level || ok != tt.ok {
			t.Errorf("HeadingLevel(%q): expected (%d, %v), got (%d, %v)", tt.tag, tt.level, tt.ok, level, ok)
		}
	}
}

func TestComputeMetrics_HeadingsAndTypes(t *testing.T) {
	g := newFakeGraph()
	g.root = g.el("Document", g.el("H"), g.el("Sect", g.el("H2a"), g.el("H3")), g.el("P"), g.el("P"))
	tree := mustWalk(t, g)

	m := ComputeMetrics(tree, nil)
	want := []string{"Document", "H", "H2a", "H3", "P", "Sect"}
	if len(m.StructureTypesFound) != len(want) {
		t.Fatalf("expected types %v, got %v", want, m.StructureTypesFound)
	}
	for i := range want {
		if m.StructureTypesFound[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], m.StructureTypesFound[i])
		}
	}
	if m.MaxHeadingLevel == nil || *m.MaxHeadingLevel != 3 {
		t.Errorf("expected max heading level 3, got %v", m.MaxHeadingLevel)
	}
}

func TestComputeMetrics_SyntheticRootCounted(t *testing.T) {
	g := newFakeGraph()
	g.root = Sequence{g.el("P"), g.el("Table")}
	tree := mustWalk(t, g)

	m := ComputeMetrics(tree, nil)
	want := []string{"P", "Root", "Table"}
	if len(m.StructureTypesFound) != 3 {
		t.Fatalf("expected %v, got %v", want, m.StructureTypesFound)
	}
	for i := range want {
		if m.StructureTypesFound[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], m.StructureTypesFound[i])
		}
	}
}

func TestComputeMetrics_NoHeadings(t *testing.T) {
	g := newFakeGraph()
	g.root = g.el("Document", g.el("P"), g.el("H2a"))
	m := ComputeMetrics(mustWalk(t, g), nil)
	if m.MaxHeadingLevel != nil {
		t.Errorf("expected nil max heading level, got %d", *m.MaxHeadingLevel)
	}
}

func TestComputeMetrics_NilTree(t *testing.T) {
	m := ComputeMetrics(nil, []ImageReference{})
	if m.TotalImages != 0 || m.MaxHeadingLevel != nil {
		t.Errorf("expected empty metrics, got %+v", m)
	}
	if m.StructureTypesFound == nil || len(m.StructureTypesFound) != 0 {
		t.Errorf("expected empty non-nil types, got %v", m.StructureTypesFound)
	}
}

func TestCollectImages(t *testing.T) {
	g := newFakeGraph()
	withAlt := g.el("Figure")
	withAlt.Alt = "A chart showing sales"
	blank := g.el("/Figure")
	blank.Alt = "   "
	bare := g.el("Figure")
	g.root = g.el("Document", withAlt, g.el("Sect", blank), bare, g.el("P"))

	images := CollectImages(mustWalk(t, g))
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if !images[0].HasAltText {
		t.Error("expected first image to have alt text")
	}
	if images[1].HasAltText {
		t.Error("expected whitespace alt text to count as missing")
	}
	if images[2].HasAltText || images[2].AltText != nil {
		t.Error("expected bare figure to have no alt text")
	}
	for i, img := range images {
		if img.PageNumber != 1 {
			t.Errorf("image %d: expected page 1, got %d", i, img.PageNumber)
		}
	}

	m := ComputeMetrics(nil, images)
	if m.ImagesWithAltText+m.ImagesWithoutAltText != m.TotalImages {
		t.Errorf("expected with+without == total, got %d+%d != %d", m.ImagesWithAltText, m.ImagesWithoutAltText, m.TotalImages)
	}
	if m.ImagesWithAltText != 1 || m.ImagesWithoutAltText != 2 {
		t.Errorf("expected 1 with and 2 without, got %d and %d", m.ImagesWithAltText, m.ImagesWithoutAltText)
	}
}

func TestCollectImages_NilTree(t *testing.T) {
	images := CollectImages(nil)
	if images == nil || len(images) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", images)
	}
}
