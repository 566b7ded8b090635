package accessibility

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultResultTTL = time.Hour
)

const timeoutMessage = "Extraction timed out - PDF too complex for processing"

// Extractor runs bounded-time extraction attempts and caches their results.
type Extractor struct {
	opener  Opener
	store   ResultStore
	log     *slog.Logger
	timeout time.Duration
	ttl     time.Duration
	now     func() time.Time
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithTimeout bounds each extraction attempt. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithResultTTL sets how long a cached result stays valid.
func WithResultTTL(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.ttl = d
		}
	}
}

// WithStore injects the result cache. Without one, nothing is cached.
func WithStore(s ResultStore) ExtractorOption {
	return func(e *Extractor) { e.store = s }
}

// NewExtractor returns an Extractor reading documents through opener.
func NewExtractor(opener Opener, log *slog.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		opener:  opener,
		log:     orDefault(log),
		timeout: DefaultTimeout,
		ttl:     DefaultResultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract analyzes the document at path. It never fails: every error is
// recorded in the returned result.
func (e *Extractor) Extract(ctx context.Context, path, filename string) *ExtractionResult {
	log := e.log.With("filename", filename)
	res := newResult(filename, e.now(), e.ttl)

	key, size, err := fileDigest(path)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Unexpected error: %s", err))
		return res.finalize()
	}
	res.CacheKey = key

	if e.store != nil {
		cached, ok, err := e.store.Get(ctx, key)
		if err != nil {
			log.Warn("result store read failed", "cache_key", key, "error", err)
		} else if ok {
			log.Debug("result cache hit", "cache_key", key)
			// The stored result is shared; only the filename belongs to
			// this request. Timestamps stay those of the cached analysis.
			hit := *cached
			hit.PDFFilename = filename
			return &hit
		}
	}

	actx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan *ExtractionResult, 1)
	go func() {
		attempt := newResult(filename, res.ExtractionTimestamp, e.ttl)
		attempt.CacheKey = key
		attempt.FileSizeBytes = size
		done <- e.attempt(actx, path, attempt)
	}()

	var out *ExtractionResult
	select {
	case out = <-done:
	case <-actx.Done():
		out = e.interrupted(actx, res)
	}

	if out.TimedOut {
		log.Warn("extraction timed out", "timeout", e.timeout)
		return out
	}
	if e.store != nil && ctx.Err() == nil {
		if err := e.store.Put(ctx, key, out, e.ttl); err != nil {
			log.Warn("result store write failed", "cache_key", key, "error", err)
		}
	}
	return out
}

// interrupted converts a context expiry into a result. Only the identifying
// fields recorded before the attempt started are kept.
func (e *Extractor) interrupted(ctx context.Context, res *ExtractionResult) *ExtractionResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.Errors = append(res.Errors, timeoutMessage)
	} else {
		res.Errors = append(res.Errors, fmt.Sprintf("Unexpected error: %s", ctx.Err()))
	}
	return res.finalize()
}

func (e *Extractor) attempt(ctx context.Context, path string, res *ExtractionResult) *ExtractionResult {
	doc, err := e.opener.Open(ctx, path)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return e.interrupted(ctx, res)
		case errors.Is(err, ErrPasswordProtected):
			res.IsEncrypted = true
			res.Errors = append(res.Errors, "PDF is password-protected")
		case errors.Is(err, ErrMalformed):
			res.Errors = append(res.Errors, fmt.Sprintf("PDF parsing error: %s", causeOf(err)))
		default:
			res.Errors = append(res.Errors, fmt.Sprintf("Unexpected error: %s", err))
		}
		return res.finalize()
	}
	defer doc.Close()

	pages, err := doc.PageCount()
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("PDF parsing error: %s", causeOf(err)))
		return res.finalize()
	}
	res.PageCount = pages
	res.PDFVersion = doc.Version()

	if doc.Encrypted() {
		res.IsEncrypted = true
		res.Errors = append(res.Errors, "PDF is encrypted")
		return res.finalize()
	}

	graph, hasTree := doc.StructTree()
	res.HasStructureTree = hasTree
	res.IsTagged = doc.Marked()

	meta := ReadMetadata(doc)
	res.DocumentLanguage = meta.Language
	res.DocumentTitle = meta.Title

	if hasTree {
		tree, err := WalkStructure(ctx, graph)
		if err != nil {
			if ctx.Err() != nil {
				return e.interrupted(ctx, res)
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("Partial extraction - corrupted tags: %s", err))
		} else {
			res.StructureTree = tree
			res.Images = CollectImages(tree)
		}
	}

	if ctx.Err() != nil {
		return e.interrupted(ctx, res)
	}
	res.Success = true
	return res.finalize()
}

// ContentHash streams r through SHA-256 and returns the hex digest and the
// number of bytes read. The digest is the extraction cache key.
func ContentHash(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// fileDigest returns the content hash of the file and its size.
func fileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return ContentHash(f)
}
