package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/netutil"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/api"
	"github.com/dgallion1/pdfaccess/internal/cache"
	"github.com/dgallion1/pdfaccess/internal/config"
	"github.com/dgallion1/pdfaccess/internal/pathstore"
	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
	"github.com/dgallion1/pdfaccess/internal/pipeline"
	"github.com/dgallion1/pdfaccess/internal/stats"
	"github.com/dgallion1/pdfaccess/internal/suggest"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Result cache: remote when configured, otherwise in memory.
	memory := cache.NewMemory()
	var store accessibility.ResultStore = memory
	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		store = pathstore.NewResultStore(ps)
		log.Info("caching results in pathstore", "url", cfg.PathstoreURL)
	}

	opener := pdfdoc.NewOpener()
	extractor := accessibility.NewExtractor(opener, log,
		accessibility.WithTimeout(cfg.ExtractionTimeout),
		accessibility.WithResultTTL(cfg.ResultTTL),
		accessibility.WithStore(store),
	)

	var describer suggest.Describer
	var claude *suggest.ClaudeClient
	if cfg.SuggestionsEnabled() {
		claude = suggest.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL)
		describer = claude
		log.Info("alt text suggestions enabled", "model", claude.Model())
	}
	suggester := suggest.NewSuggester(describer, cfg.MaxConcurrentSuggest, stats.NewLatency(time.Hour), log)

	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		SessionTTL:   cfg.SessionTTL,
	}, extractor, stats.NewLatency(time.Hour), log, memory)
	orch.Start(ctx)

	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Validator:    accessibility.NewValidator(opener, log),
		Extractor:    extractor,
		Remediator:   accessibility.NewRemediator(opener, log),
		Images:       opener,
		Suggester:    suggester,
	}, log, cfg)

	httpServer := &http.Server{
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Error("listen failed", "error", err)
		os.Exit(1)
	}
	ln = netutil.LimitListener(ln, cfg.MaxConnections)

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if claude != nil {
			claude.Close()
		}
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting pdfaccess", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
