package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
)

// Audit is the per-file record emitted by batch audits.
type Audit struct {
	File             string                          `json:"file"`
	Validation       *accessibility.ValidationResult `json:"validation"`
	Result           *accessibility.ExtractionResult `json:"result,omitempty"`
	ActualImageCount *int                            `json:"actual_image_count,omitempty"`
	Findings         []Finding                       `json:"findings"`
}

// YAML renders v with the same field names as its JSON encoding. v is
// encoded to JSON first and the resulting node tree is re-emitted in block
// style.
func YAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json as yaml: %w", err)
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Row is the flat Parquet record of one audited file.
type Row struct {
	File                 string   `json:"file" parquet:"file"`
	CacheKey             string   `json:"cache_key" parquet:"cache_key"`
	ExtractedAtMillis    int64    `json:"extracted_at_ms" parquet:"extracted_at_ms"`
	Success              bool     `json:"success" parquet:"success"`
	TimedOut             bool     `json:"timed_out" parquet:"timed_out"`
	PageCount            int      `json:"page_count" parquet:"page_count"`
	PDFVersion           string   `json:"pdf_version" parquet:"pdf_version"`
	FileSizeBytes        int64    `json:"file_size_bytes" parquet:"file_size_bytes"`
	IsEncrypted          bool     `json:"is_encrypted" parquet:"is_encrypted"`
	IsTagged             bool     `json:"is_tagged" parquet:"is_tagged"`
	HasStructureTree     bool     `json:"has_structure_tree" parquet:"has_structure_tree"`
	Language             string   `json:"language" parquet:"language"`
	Title                string   `json:"title" parquet:"title"`
	TotalImages          int      `json:"total_images" parquet:"total_images"`
	ImagesWithAltText    int      `json:"images_with_alt_text" parquet:"images_with_alt_text"`
	ImagesWithoutAltText int      `json:"images_without_alt_text" parquet:"images_without_alt_text"`
	MaxHeadingLevel      int      `json:"max_heading_level" parquet:"max_heading_level"`
	StructureTypes       []string `json:"structure_types" parquet:"structure_types,list"`
	FindingCodes         []string `json:"finding_codes" parquet:"finding_codes,list"`
	Errors               []string `json:"errors" parquet:"errors,list"`
}

// NewRow flattens an audit. Audits without a result keep only the file and
// the validation errors.
func NewRow(a Audit) Row {
	row := Row{File: a.File, StructureTypes: []string{}, FindingCodes: []string{}, Errors: []string{}}
	for _, f := range a.Findings {
		row.FindingCodes = append(row.FindingCodes, f.Code)
	}
	res := a.Result
	if res == nil {
		if a.Validation != nil {
			row.Errors = append(row.Errors, a.Validation.Errors...)
			row.FileSizeBytes = a.Validation.FileSizeBytes
			row.IsEncrypted = a.Validation.IsEncrypted
		}
		return row
	}
	row.CacheKey = res.CacheKey
	row.ExtractedAtMillis = res.ExtractionTimestamp.UnixMilli()
	row.Success = res.Success
	row.TimedOut = res.TimedOut
	row.PageCount = res.PageCount
	row.PDFVersion = res.PDFVersion
	row.FileSizeBytes = res.FileSizeBytes
	row.IsEncrypted = res.IsEncrypted
	row.IsTagged = res.IsTagged
	row.HasStructureTree = res.HasStructureTree
	row.Language = deref(res.DocumentLanguage)
	row.Title = deref(res.DocumentTitle)
	row.TotalImages = res.TotalImages
	row.ImagesWithAltText = res.ImagesWithAltText
	row.ImagesWithoutAltText = res.ImagesWithoutAltText
	if res.MaxHeadingLevel != nil {
		row.MaxHeadingLevel = *res.MaxHeadingLevel
	}
	row.StructureTypes = append(row.StructureTypes, res.StructureTypesFound...)
	row.Errors = append(row.Errors, res.Errors...)
	return row
}

// WriteParquet writes rows as a single Parquet file.
func WriteParquet(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
