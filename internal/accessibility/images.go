package accessibility

import "strings"

// CollectImages returns one ImageReference per Figure element, in reading
// order. Page association is not tracked while walking, so every reference
// reports page 1.
func CollectImages(root *StructureElement) []ImageReference {
	images := []ImageReference{}
	root.Walk(func(e *StructureElement) bool {
		if isFigure(e.ElementType) {
			images = append(images, ImageReference{
				PageNumber: 1,
				AltText:    e.AltText,
				ActualText: e.ActualText,
				HasAltText: e.AltText != nil && strings.TrimSpace(*e.AltText) != "",
			})
		}
		return true
	})
	return images
}

func isFigure(tag string) bool {
	return tag == "Figure" || tag == "/Figure"
}
