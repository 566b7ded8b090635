package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/stats"
)

// Analyzer runs one extraction. *accessibility.Extractor implements it.
type Analyzer interface {
	Extract(ctx context.Context, path, filename string) *accessibility.ExtractionResult
}

// Cleaner is anything with periodic expiry, such as the memory result store.
type Cleaner interface {
	Cleanup()
}

// Options configures the orchestrator.
type Options struct {
	WorkerCount     int
	MaxQueueSize    int
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// Orchestrator owns upload sessions and analyzes them on a worker pool.
type Orchestrator struct {
	sessions *SessionStore
	queue    chan *Session
	analyzer Analyzer
	stats    *stats.Latency
	cleaners []Cleaner
	log      *slog.Logger
	opts     Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(opts Options, analyzer Analyzer, st *stats.Latency, log *slog.Logger, cleaners ...Cleaner) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if st == nil {
		st = stats.NewLatency(time.Hour)
	}
	return &Orchestrator{
		sessions: NewSessionStore(opts.SessionTTL),
		queue:    make(chan *Session, opts.MaxQueueSize),
		analyzer: analyzer,
		stats:    st,
		cleaners: cleaners,
		log:      log,
		opts:     opts,
	}
}

// Start launches worker goroutines and the expiry ticker.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.analyzer, o.stats, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case sess, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, sess)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cleanup()
			}
		}
	}()
}

func (o *Orchestrator) cleanup() {
	if n := o.sessions.Cleanup(); n > 0 {
		o.log.Info("expired sessions removed", "count", n)
	}
	for _, c := range o.cleaners {
		c.Cleanup()
	}
}

// Stop gracefully shuts down the pipeline. Sessions still on disk are
// removed.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
	if n := o.sessions.Clear(); n > 0 {
		o.log.Info("sessions removed on shutdown", "count", n)
	}
}

// Register adds a session without queueing analysis.
func (o *Orchestrator) Register(sess *Session) {
	o.sessions.Put(sess)
}

// Submit registers the session and queues its analysis.
func (o *Orchestrator) Submit(sess *Session) error {
	o.sessions.Put(sess)
	return o.Enqueue(sess)
}

// Enqueue queues analysis for an already registered session.
func (o *Orchestrator) Enqueue(sess *Session) error {
	sess.SetStatus(StatusQueued, "queued")
	select {
	case o.queue <- sess:
		return nil
	default:
		sess.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("analysis queue is full (%d)", o.opts.MaxQueueSize)
	}
}

// GetSession returns a session by ID and extends its lifetime.
func (o *Orchestrator) GetSession(id string) *Session {
	sess := o.sessions.Get(id)
	if sess != nil {
		sess.Touch()
	}
	return sess
}

// Remove deletes the session and its file.
func (o *Orchestrator) Remove(id string) (bool, error) {
	return o.sessions.Delete(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// SessionCount returns the number of live sessions.
func (o *Orchestrator) SessionCount() int {
	return o.sessions.Len()
}

// Stats returns the extraction latency tracker.
func (o *Orchestrator) Stats() *stats.Latency {
	return o.stats
}
