package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/cache"
	"github.com/dgallion1/pdfaccess/internal/config"
	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
	"github.com/dgallion1/pdfaccess/internal/pipeline"
	"github.com/dgallion1/pdfaccess/internal/suggest"
	"github.com/dgallion1/pdfaccess/internal/testpdf"
)

type describerFunc func(ctx context.Context, png []byte, prompt string) (string, error)

func (f describerFunc) DescribeImage(ctx context.Context, png []byte, prompt string) (string, error) {
	return f(ctx, png, prompt)
}

// newTestServer wires real components. The orchestrator is never started so
// queued sessions stay queued.
func newTestServer(t *testing.T, apiKey string, describer suggest.Describer) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	cfg := config.Config{
		APIKey:         apiKey,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 10 << 20,
	}

	opener := pdfdoc.NewOpener()
	extractor := accessibility.NewExtractor(opener, log, accessibility.WithStore(cache.NewMemory()))
	orch := pipeline.NewOrchestrator(pipeline.Options{}, extractor, nil, log)
	t.Cleanup(orch.Stop)

	return NewServer(Deps{
		Orchestrator: orch,
		Validator:    accessibility.NewValidator(opener, log),
		Extractor:    extractor,
		Remediator:   accessibility.NewRemediator(opener, log),
		Images:       opener,
		Suggester:    suggest.NewSuggester(describer, 1, nil, log),
	}, log, cfg)
}

func do(t *testing.T, srv http.Handler, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename string, data []byte) (io.Reader, http.Header) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("pdf_file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, http.Header{"Content-Type": {mw.FormDataContentType()}}
}

func upload(t *testing.T, srv *Server, data []byte) string {
	t.Helper()
	body, header := uploadRequest(t, "report.pdf", data)
	rec := do(t, srv, http.MethodPost, "/api/upload", body, header)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		PDFID   string `json:"pdf_id"`
		Success bool   `json:"success"`
	}
	decode(t, rec, &resp)
	if !resp.Success || resp.PDFID == "" {
		t.Fatalf("unexpected upload response: %s", rec.Body)
	}
	return resp.PDFID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body, err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "secret", nil)
	rec := do(t, srv, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, "secret", nil)

	rec := do(t, srv, http.MethodGet, "/api/stats", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/stats", nil, http.Header{"Authorization": {"Bearer wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/stats", nil, http.Header{"Authorization": {"Bearer secret"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rec.Code)
	}
}

func TestUploadAndStatus(t *testing.T) {
	srv := newTestServer(t, "", nil)
	id := upload(t, srv, testpdf.Tagged())

	rec := do(t, srv, http.MethodGet, "/api/"+id+"/status", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap pipeline.SessionSnapshot
	decode(t, rec, &snap)
	if snap.ID != id {
		t.Errorf("expected pdf_id %s, got %s", id, snap.ID)
	}
	if snap.Filename != "report.pdf" {
		t.Errorf("expected filename report.pdf, got %s", snap.Filename)
	}
	if snap.Status != pipeline.StatusQueued {
		t.Errorf("expected queued, got %s", snap.Status)
	}
}

func TestUploadRejects(t *testing.T) {
	srv := newTestServer(t, "", nil)

	rec := do(t, srv, http.MethodPost, "/api/upload", strings.NewReader(""), http.Header{"Content-Type": {"multipart/form-data; boundary=x"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty form: expected 400, got %d", rec.Code)
	}

	body, header := uploadRequest(t, "notes.txt", []byte("hello"))
	rec = do(t, srv, http.MethodPost, "/api/upload", body, header)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong extension: expected 400, got %d", rec.Code)
	}

	body, header = uploadRequest(t, "broken.pdf", []byte("not a pdf at all"))
	rec = do(t, srv, http.MethodPost, "/api/upload", body, header)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid pdf: expected 400, got %d", rec.Code)
	}
	var resp map[string]any
	decode(t, rec, &resp)
	if msg, _ := resp["error"].(string); !strings.HasPrefix(msg, "Invalid PDF") {
		t.Errorf("expected Invalid PDF error, got %q", msg)
	}

	entries, err := os.ReadDir(srv.cfg.UploadDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected rejected upload to be removed, found %d files", len(entries))
	}
}

func TestUploadTooLarge(t *testing.T) {
	srv := newTestServer(t, "", nil)
	data := testpdf.Tagged()
	srv.cfg.MaxUploadBytes = int64(len(data)) - 300

	body, header := uploadRequest(t, "big.pdf", data)
	rec := do(t, srv, http.MethodPost, "/api/upload", body, header)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body)
	}
	entries, err := os.ReadDir(srv.cfg.UploadDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected oversize upload to be removed, found %d files", len(entries))
	}
	if n := srv.deps.Orchestrator.SessionCount(); n != 0 {
		t.Errorf("expected no session, got %d", n)
	}

	srv.cfg.MaxUploadBytes = int64(len(data))
	body, header = uploadRequest(t, "exact.pdf", data)
	if rec := do(t, srv, http.MethodPost, "/api/upload", body, header); rec.Code != http.StatusCreated {
		t.Errorf("expected 201 at exactly the limit, got %d", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, "", nil)
	rec := do(t, srv, http.MethodGet, "/api/missing/status", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMetadata(t *testing.T) {
	srv := newTestServer(t, "", nil)
	id := upload(t, srv, testpdf.Tagged())

	rec := do(t, srv, http.MethodGet, "/api/"+id+"/accessibility_metadata", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success          bool   `json:"success"`
		IsTagged         bool   `json:"is_tagged"`
		PDFFilename      string `json:"pdf_filename"`
		TotalImages      int    `json:"total_images"`
		ActualImageCount int    `json:"actual_image_count"`
	}
	decode(t, rec, &resp)
	if !resp.Success || !resp.IsTagged {
		t.Errorf("expected tagged success, got %s", rec.Body)
	}
	if resp.PDFFilename != "report.pdf" {
		t.Errorf("expected report.pdf, got %s", resp.PDFFilename)
	}
	if resp.TotalImages != 1 {
		t.Errorf("expected 1 figure, got %d", resp.TotalImages)
	}
	if resp.ActualImageCount != 1 {
		t.Errorf("expected 1 content image, got %d", resp.ActualImageCount)
	}
}

func TestImagesAndTagging(t *testing.T) {
	srv := newTestServer(t, "", nil)
	id := upload(t, srv, testpdf.Untagged())
	base := "/api/" + id

	rec := do(t, srv, http.MethodGet, base+"/images", nil, nil)
	var list struct {
		Images []pdfdoc.ImageInfo `json:"images"`
	}
	decode(t, rec, &list)
	if len(list.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(list.Images))
	}

	rec = do(t, srv, http.MethodGet, base+"/images/0", nil, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec = do(t, srv, http.MethodGet, base+"/images/5", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing image, got %d", rec.Code)
	}
	if rec = do(t, srv, http.MethodGet, base+"/images/0?max=0", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad max, got %d", rec.Code)
	}

	if rec = do(t, srv, http.MethodPost, base+"/images/0", strings.NewReader(`{"alt_text":"  "}`), nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank alt text, got %d", rec.Code)
	}
	if rec = do(t, srv, http.MethodPost, base+"/images/3", strings.NewReader(`{"alt_text":"Chart"}`), nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for missing image, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, base+"/images/0", strings.NewReader(`{"alt_text":"Three coloured pixels"}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, srv, http.MethodGet, base+"/status", nil, nil)
	var snap pipeline.SessionSnapshot
	decode(t, rec, &snap)
	if snap.Remediated != 1 {
		t.Errorf("expected 1 tagged image, got %d", snap.Remediated)
	}

	rec = do(t, srv, http.MethodGet, base+"/accessibility_metadata", nil, nil)
	var meta accessibility.ExtractionResult
	decode(t, rec, &meta)
	if !meta.HasStructureTree {
		t.Error("expected structure tree after tagging")
	}
	if meta.ImagesWithAltText != 1 {
		t.Errorf("expected 1 image with alt text, got %d", meta.ImagesWithAltText)
	}
}

func TestSuggest(t *testing.T) {
	var prompt string
	srv := newTestServer(t, "", describerFunc(func(_ context.Context, png []byte, p string) (string, error) {
		if len(png) == 0 {
			t.Error("expected image bytes")
		}
		prompt = p
		return `"Alt text: Image of three coloured pixels"`, nil
	}))
	id := upload(t, srv, testpdf.Tagged())

	rec := do(t, srv, http.MethodPost, "/api/"+id+"/images/0/suggest", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var sug suggest.Suggestion
	decode(t, rec, &sug)
	if sug.AltText != "Three coloured pixels" {
		t.Errorf("expected cleaned alt text, got %q", sug.AltText)
	}
	if !strings.Contains(prompt, "Quarterly report") {
		t.Errorf("expected document title in prompt, got %q", prompt)
	}

	if rec = do(t, srv, http.MethodPost, "/api/"+id+"/images/9/suggest", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSuggestDisabled(t *testing.T) {
	srv := newTestServer(t, "", nil)
	id := upload(t, srv, testpdf.Tagged())
	rec := do(t, srv, http.MethodPost, "/api/"+id+"/images/0/suggest", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReport(t *testing.T) {
	srv := newTestServer(t, "", nil)
	id := upload(t, srv, testpdf.Untagged())
	base := "/api/" + id + "/report"

	rec := do(t, srv, http.MethodGet, base, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "# Accessibility report: report.pdf") {
		t.Errorf("unexpected markdown: %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "not_tagged") {
		t.Errorf("expected not_tagged finding in %s", rec.Body)
	}

	rec = do(t, srv, http.MethodGet, base+"?format=html", nil, nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html, got %s", ct)
	}

	rec = do(t, srv, http.MethodGet, base+"?format=docx", nil, nil)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "report-accessibility.docx") {
		t.Errorf("expected docx attachment, got %q", cd)
	}

	if rec = do(t, srv, http.MethodGet, base+"?format=pdf", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestDataAndDownload(t *testing.T) {
	srv := newTestServer(t, "", nil)
	data := testpdf.Untagged()
	id := upload(t, srv, data)

	rec := do(t, srv, http.MethodGet, "/api/"+id+"/data", nil, nil)
	var resp map[string]string
	decode(t, rec, &resp)
	if !strings.HasPrefix(resp["pdf_data_url"], "data:application/pdf;base64,") {
		t.Errorf("unexpected data url prefix: %.40s", resp["pdf_data_url"])
	}

	rec = do(t, srv, http.MethodGet, "/api/"+id+"/download", nil, nil)
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("expected download to return the uploaded bytes")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "report.pdf") {
		t.Errorf("expected attachment filename, got %q", cd)
	}
}

func TestCleanupAndStats(t *testing.T) {
	srv := newTestServer(t, "", nil)
	id := upload(t, srv, testpdf.Untagged())

	rec := do(t, srv, http.MethodGet, "/api/stats", nil, nil)
	var st struct {
		Sessions   int `json:"sessions"`
		QueueDepth int `json:"queue_depth"`
	}
	decode(t, rec, &st)
	if st.Sessions != 1 || st.QueueDepth != 1 {
		t.Errorf("expected 1 session and 1 queued, got %+v", st)
	}

	rec = do(t, srv, http.MethodPost, "/api/"+id+"/cleanup", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec = do(t, srv, http.MethodGet, "/api/"+id+"/status", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after cleanup, got %d", rec.Code)
	}
	entries, _ := os.ReadDir(srv.cfg.UploadDir)
	if len(entries) != 0 {
		t.Errorf("expected upload removed, found %d files", len(entries))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":       "report.pdf",
		"../../etc/passwd": "passwd",
		`C:\docs\scan.pdf`: "scan.pdf",
		"a\"b.pdf":         "a_b.pdf",
		"":                 "unnamed.pdf",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
