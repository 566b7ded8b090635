package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/pdfaccess/internal/pipeline"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.tooLarge(w)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("pdf_file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	path, err := s.saveUpload(id, file)
	if errors.Is(err, errUploadTooLarge) {
		s.tooLarge(w)
		return
	}
	if err != nil {
		s.log.Error("save upload failed", "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	v := s.deps.Validator.Validate(r.Context(), path)
	if !v.CanProceed {
		os.Remove(path)
		msg := "Invalid PDF"
		if len(v.Errors) > 0 {
			msg = v.Errors[0]
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    msg,
			"warnings": v.Warnings,
		})
		return
	}

	sess := pipeline.NewSession(id, filename, path, v.Warnings)
	log := s.log.With("pdf_id", id, "filename", filename)
	if err := s.deps.Orchestrator.Submit(sess); err != nil {
		// Analysis still runs on demand when metadata is requested.
		log.Warn("background analysis not queued", "error", err)
	}
	log.Info("upload accepted", "size", v.FileSizeBytes, "warnings", len(v.Warnings))

	writeJSON(w, http.StatusCreated, map[string]any{
		"pdf_id":   id,
		"success":  true,
		"warnings": v.Warnings,
	})
}

var errUploadTooLarge = errors.New("upload exceeds max size")

func (s *Server) tooLarge(w http.ResponseWriter) {
	jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
}

// saveUpload stores src under the upload dir. Nothing is kept when src is
// larger than MaxUploadBytes.
func (s *Server) saveUpload(id string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, id+".pdf")
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > s.cfg.MaxUploadBytes {
		dst.Close()
		os.Remove(path)
		return "", errUploadTooLarge
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var data []byte
	err := sess.Reading(func(path string) (err error) {
		data, err = os.ReadFile(path)
		return err
	})
	if err != nil {
		s.log.Error("read upload failed", "pdf_id", sess.ID, "error", err)
		jsonError(w, "failed to read PDF", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"pdf_data_url": "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		"pdf_id":       sess.ID,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	err := sess.Reading(func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.Filename))
		http.ServeContent(w, r, sess.Filename, info.ModTime(), f)
		return nil
	})
	if err != nil {
		s.log.Error("download failed", "pdf_id", sess.ID, "error", err)
		jsonError(w, "failed to read PDF", http.StatusInternalServerError)
	}
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var removed bool
	err := sess.Writing(func(string) (err error) {
		removed, err = s.deps.Orchestrator.Remove(sess.ID)
		return err
	})
	if err != nil {
		s.log.Warn("cleanup incomplete", "pdf_id", sess.ID, "error", err)
	}
	if !removed {
		jsonError(w, "PDF not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Cleanup complete"})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "unnamed.pdf"
	}
	return name
}
