package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
	"github.com/dgallion1/pdfaccess/internal/suggest"
)

// suggestMaxDim bounds the image sent for suggestions.
const suggestMaxDim = 1024

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var images []pdfdoc.ImageInfo
	err := sess.Reading(func(path string) (err error) {
		images, err = s.deps.Images.ListImages(r.Context(), path)
		return err
	})
	if err != nil {
		s.log.Error("image listing failed", "pdf_id", sess.ID, "error", err)
		jsonError(w, "failed to list images", http.StatusInternalServerError)
		return
	}
	if images == nil {
		images = []pdfdoc.ImageInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func imageIndex(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	return n, err == nil && n >= 0
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	n, ok := imageIndex(r)
	if !ok {
		jsonError(w, "Image not found", http.StatusNotFound)
		return
	}
	maxDim := 0
	if v := r.URL.Query().Get("max"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m <= 0 {
			jsonError(w, "max must be a positive integer", http.StatusBadRequest)
			return
		}
		maxDim = m
	}

	var data []byte
	err := sess.Reading(func(path string) (err error) {
		data, _, err = s.deps.Images.RenderImage(r.Context(), path, n, maxDim)
		return err
	})
	if errors.Is(err, accessibility.ErrImageNotFound) {
		jsonError(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("image render failed", "pdf_id", sess.ID, "image", n, "error", err)
		jsonError(w, "failed to render image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

type tagRequest struct {
	AltText *string `json:"alt_text"`
}

func (s *Server) handleTagImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	n, ok := imageIndex(r)
	if !ok {
		jsonError(w, "Image not found", http.StatusNotFound)
		return
	}

	var req tagRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.AltText == nil || accessibility.NormalizeAltText(*req.AltText) == "" {
		jsonError(w, "alt_text is required", http.StatusBadRequest)
		return
	}

	var tagged bool
	sess.Writing(func(path string) error {
		tagged = s.deps.Remediator.TagImage(r.Context(), path, n, *req.AltText)
		return nil
	})
	if !tagged {
		jsonError(w, "Failed to tag image", http.StatusInternalServerError)
		return
	}

	sess.MarkRemediated()
	if err := s.deps.Orchestrator.Enqueue(sess); err != nil {
		s.log.Warn("re-analysis not queued", "pdf_id", sess.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Image tagged successfully"})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !s.deps.Suggester.Enabled() {
		jsonError(w, "alt text suggestions are not configured", http.StatusServiceUnavailable)
		return
	}
	n, ok := imageIndex(r)
	if !ok {
		jsonError(w, "Image not found", http.StatusNotFound)
		return
	}

	var (
		png  []byte
		info pdfdoc.ImageInfo
	)
	err := sess.Reading(func(path string) (err error) {
		png, info, err = s.deps.Images.RenderImage(r.Context(), path, n, suggestMaxDim)
		return err
	})
	if errors.Is(err, accessibility.ErrImageNotFound) {
		jsonError(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("image render failed", "pdf_id", sess.ID, "image", n, "error", err)
		jsonError(w, "failed to render image", http.StatusInternalServerError)
		return
	}

	res, _ := s.analyze(r, sess)
	hint := suggest.Context{PageNumber: info.PageNumber, Width: info.Width, Height: info.Height}
	if res != nil && res.DocumentTitle != nil {
		hint.DocumentTitle = *res.DocumentTitle
	}

	sug, err := s.deps.Suggester.Suggest(r.Context(), png, hint)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sug)
	case errors.Is(err, suggest.ErrRejected):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case suggest.IsRetryable(err):
		jsonError(w, "suggestion service is busy, try again later", http.StatusServiceUnavailable)
	default:
		s.log.Error("suggestion failed", "pdf_id", sess.ID, "image", n, "error", err)
		jsonError(w, "suggestion failed", http.StatusBadGateway)
	}
}
