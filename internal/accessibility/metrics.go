package accessibility

import (
	"sort"
	"strconv"
	"strings"
)

// Metrics are the aggregate statistics stored on an ExtractionResult.
type Metrics struct {
	TotalImages          int
	ImagesWithAltText    int
	ImagesWithoutAltText int
	StructureTypesFound  []string
	MaxHeadingLevel      *int
}

// ComputeMetrics derives image coverage and structure statistics.
func ComputeMetrics(root *StructureElement, images []ImageReference) Metrics {
	m := Metrics{TotalImages: len(images)}
	for _, img := range images {
		if img.HasAltText {
			m.ImagesWithAltText++
		}
	}
	m.ImagesWithoutAltText = m.TotalImages - m.ImagesWithAltText

	seen := map[string]bool{}
	types := []string{}
	var maxLevel *int
	root.Walk(func(e *StructureElement) bool {
		if !seen[e.ElementType] {
			seen[e.ElementType] = true
			types = append(types, e.ElementType)
		}
		if level, ok := HeadingLevel(e.ElementType); ok {
			if maxLevel == nil || level > *maxLevel {
				l := level
				maxLevel = &l
			}
		}
		return true
	})
	sort.Strings(types)
	m.StructureTypesFound = types
	m.MaxHeadingLevel = maxLevel
	return m
}

// HeadingLevel parses heading tags: "H" is level 1, "H<n>" is level n.
// Any other tag starting with "H" is not a heading.
func HeadingLevel(tag string) (int, bool) {
	rest, ok := strings.CutPrefix(tag, "H")
	if !ok {
		return 0, false
	}
	if rest == "" {
		return 1, true
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
