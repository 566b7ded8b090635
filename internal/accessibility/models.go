package accessibility

import "time"

// StructureElement is one tagged node of the normalized structure tree.
type StructureElement struct {
	ElementType       string              `json:"element_type"`
	Depth             int                 `json:"depth"`
	ReadingOrderIndex int                 `json:"reading_order_index"`
	AltText           *string             `json:"alt_text"`
	ActualText        *string             `json:"actual_text"`
	Title             *string             `json:"title"`
	Lang              *string             `json:"lang"`
	Children          []*StructureElement `json:"children"`
	ParentType        *string             `json:"parent_type"`
}

// Walk visits e and its descendants in pre-order. Returning false from fn
// skips the children of the current element.
func (e *StructureElement) Walk(fn func(*StructureElement) bool) {
	if e == nil {
		return
	}
	stack := []*StructureElement{e}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// ImageReference is a Figure found in the structure tree.
type ImageReference struct {
	PageNumber int     `json:"page_number"`
	AltText    *string `json:"alt_text"`
	ActualText *string `json:"actual_text"`
	HasAltText bool    `json:"has_alt_text"`

	// Geometry is not tracked by the walker.
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// ExtractionResult is the outcome of one extraction attempt.
type ExtractionResult struct {
	PDFFilename         string    `json:"pdf_filename"`
	ExtractionTimestamp time.Time `json:"extraction_timestamp"`
	CacheKey            string    `json:"cache_key"`
	ExpiresAt           time.Time `json:"expires_at"`

	PageCount     int    `json:"page_count"`
	PDFVersion    string `json:"pdf_version"`
	FileSizeBytes int64  `json:"file_size_bytes"`

	Success          bool `json:"success"`
	IsEncrypted      bool `json:"is_encrypted"`
	TimedOut         bool `json:"timed_out"`
	HasStructureTree bool `json:"has_structure_tree"`
	IsTagged         bool `json:"is_tagged"`

	DocumentLanguage *string `json:"document_language"`
	DocumentTitle    *string `json:"document_title"`

	StructureTree *StructureElement `json:"structure_tree"`
	Images        []ImageReference  `json:"images"`

	TotalImages          int      `json:"total_images"`
	ImagesWithAltText    int      `json:"images_with_alt_text"`
	ImagesWithoutAltText int      `json:"images_without_alt_text"`
	StructureTypesFound  []string `json:"structure_types_found"`
	MaxHeadingLevel      *int     `json:"max_heading_level"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult(filename string, now time.Time, ttl time.Duration) *ExtractionResult {
	return &ExtractionResult{
		PDFFilename:         filename,
		ExtractionTimestamp: now,
		ExpiresAt:           now.Add(ttl),
		Images:              []ImageReference{},
		StructureTypesFound: []string{},
		Errors:              []string{},
		Warnings:            []string{},
	}
}

// finalize derives the metrics from the tree and image list. It is called
// exactly once, when the attempt is complete.
func (r *ExtractionResult) finalize() *ExtractionResult {
	if r.Images == nil {
		r.Images = []ImageReference{}
	}
	m := ComputeMetrics(r.StructureTree, r.Images)
	r.TotalImages = m.TotalImages
	r.ImagesWithAltText = m.ImagesWithAltText
	r.ImagesWithoutAltText = m.ImagesWithoutAltText
	r.StructureTypesFound = m.StructureTypesFound
	r.MaxHeadingLevel = m.MaxHeadingLevel
	return r
}

// ValidationStatus is the gate outcome of Validate.
type ValidationStatus string

const (
	StatusValid     ValidationStatus = "valid"
	StatusInvalid   ValidationStatus = "invalid"
	StatusEncrypted ValidationStatus = "encrypted"
	StatusWarning   ValidationStatus = "warning"
)

// ValidationResult is produced once per upload.
type ValidationResult struct {
	Status        ValidationStatus `json:"status"`
	CanProceed    bool             `json:"can_proceed"`
	FileSizeBytes int64            `json:"file_size_bytes"`
	IsValidPDF    bool             `json:"is_valid_pdf"`
	IsEncrypted   bool             `json:"is_encrypted"`
	Errors        []string         `json:"errors"`
	Warnings      []string         `json:"warnings"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
