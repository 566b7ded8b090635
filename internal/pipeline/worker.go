package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/stats"
)

// Worker analyzes one session at a time.
type Worker struct {
	analyzer Analyzer
	stats    *stats.Latency
	log      *slog.Logger
}

func NewWorker(analyzer Analyzer, st *stats.Latency, log *slog.Logger) *Worker {
	return &Worker{analyzer: analyzer, stats: st, log: log}
}

// Process extracts the session's document. The result itself lives in the
// extractor's store; the session keeps a summary.
func (w *Worker) Process(ctx context.Context, sess *Session) {
	log := w.log.With("pdf_id", sess.ID, "filename", sess.Filename)

	sess.SetStatus(StatusExtracting, "extracting")
	start := time.Now()
	var res *accessibility.ExtractionResult
	sess.Reading(func(path string) error {
		res = w.analyzer.Extract(ctx, path, sess.Filename)
		return nil
	})
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		log.Warn("analysis interrupted", "error", ctx.Err())
		sess.AddError(ctx.Err().Error())
		sess.SetStatus(StatusFailed, "interrupted")
		return
	}

	sess.setSummary(&Summary{
		CacheKey:             res.CacheKey,
		Success:              res.Success,
		TimedOut:             res.TimedOut,
		PageCount:            res.PageCount,
		IsTagged:             res.IsTagged,
		TotalImages:          res.TotalImages,
		ImagesWithoutAltText: res.ImagesWithoutAltText,
		DurationMs:           elapsed.Milliseconds(),
	})

	if !res.Success {
		w.stats.RecordError()
		for _, e := range res.Errors {
			sess.AddError(e)
		}
		log.Warn("analysis failed", "errors", res.Errors, "timed_out", res.TimedOut)
		sess.SetStatus(StatusFailed, "extracting")
		return
	}

	w.stats.Record(elapsed)
	log.Info("analysis complete",
		"pages", res.PageCount,
		"tagged", res.IsTagged,
		"figures", res.TotalImages,
		"missing_alt", res.ImagesWithoutAltText,
		"duration_ms", elapsed.Milliseconds(),
	)
	sess.SetStatus(StatusCompleted, "done")
}
