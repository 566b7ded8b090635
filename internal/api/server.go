package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/config"
	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
	"github.com/dgallion1/pdfaccess/internal/pipeline"
	"github.com/dgallion1/pdfaccess/internal/suggest"
)

// Images lists and rasterizes the images of a PDF file.
type Images interface {
	ListImages(ctx context.Context, path string) ([]pdfdoc.ImageInfo, error)
	RenderImage(ctx context.Context, path string, id, maxDim int) ([]byte, pdfdoc.ImageInfo, error)
}

// Deps are the components behind the HTTP API.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Validator    *accessibility.Validator
	Extractor    *accessibility.Extractor
	Remediator   *accessibility.Remediator
	Images       Images
	Suggester    *suggest.Suggester
}

// Server is the HTTP API server for pdfaccess.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StripSlashes)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Get("/api/stats", s.handleStats)

		r.Route("/api/{pdfID}", func(r chi.Router) {
			r.Use(s.sessionCtx)

			r.Get("/status", s.handleStatus)
			r.Get("/data", s.handleData)
			r.Get("/accessibility_metadata", s.handleMetadata)
			r.Get("/images", s.handleListImages)
			r.Get("/images/{n}", s.handleGetImage)
			r.Post("/images/{n}", s.handleTagImage)
			r.Post("/images/{n}/suggest", s.handleSuggest)
			r.Get("/report", s.handleReport)
			r.Get("/download", s.handleDownload)
			r.Post("/cleanup", s.handleCleanup)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
