package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/pipeline"
	"github.com/dgallion1/pdfaccess/internal/report"
	"github.com/dgallion1/pdfaccess/internal/textlayer"
)

// metadataResponse is the extraction result plus the raw image count.
type metadataResponse struct {
	*accessibility.ExtractionResult
	ActualImageCount int `json:"actual_image_count"`
}

// analyze returns the (usually cached) extraction result and the number of
// image XObjects found in page content.
func (s *Server) analyze(r *http.Request, sess *pipeline.Session) (*accessibility.ExtractionResult, int) {
	var (
		res    *accessibility.ExtractionResult
		actual int
	)
	sess.Reading(func(path string) error {
		res = s.deps.Extractor.Extract(r.Context(), path, sess.Filename)
		if images, err := s.deps.Images.ListImages(r.Context(), path); err == nil {
			actual = len(images)
		} else {
			s.log.Warn("image listing failed", "pdf_id", sess.ID, "error", err)
		}
		return nil
	})
	return res, actual
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	res, actual := s.analyze(r, sessionFrom(r))
	writeJSON(w, http.StatusOK, metadataResponse{ExtractionResult: res, ActualImageCount: actual})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "md"
	}

	res, actual := s.analyze(r, sess)
	in := report.Input{Filename: sess.Filename, Result: res, ActualImageCount: &actual}
	sess.Reading(func(path string) error {
		summary, err := textlayer.Probe(path)
		if err != nil {
			s.log.Warn("text layer probe failed", "pdf_id", sess.ID, "error", err)
			return nil
		}
		in.Text = summary
		return nil
	})

	base := strings.TrimSuffix(sess.Filename, ".pdf") + "-accessibility"
	switch format {
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(report.Markdown(in)))
	case "html":
		out, err := report.HTML(in)
		if err != nil {
			s.log.Error("html report failed", "pdf_id", sess.ID, "error", err)
			jsonError(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(out)
	case "docx":
		var buf bytes.Buffer
		if err := report.DOCX(in, &buf); err != nil {
			s.log.Error("docx report failed", "pdf_id", sess.ID, "error", err)
			jsonError(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".docx"))
		w.Write(buf.Bytes())
	case "json":
		writeJSON(w, http.StatusOK, report.Audit{
			File:             sess.Filename,
			Result:           res,
			ActualImageCount: &actual,
			Findings:         report.Findings(in),
		})
	default:
		jsonError(w, fmt.Sprintf("unsupported report format: %s", format), http.StatusBadRequest)
	}
}
