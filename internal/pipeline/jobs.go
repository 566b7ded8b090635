package pipeline

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// JobStatus represents the analysis state of an uploaded document.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Session is one uploaded PDF: the file on disk and the state of its
// background analysis.
type Session struct {
	mu     sync.Mutex
	fileMu sync.RWMutex

	ID       string
	Filename string
	Path     string

	Status   JobStatus
	Phase    string
	Warnings []string

	ContentHash string
	Remediated  int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	errors  []string
	summary *Summary
}

// Summary is the headline of the last completed analysis.
type Summary struct {
	CacheKey             string `json:"cache_key"`
	Success              bool   `json:"success"`
	TimedOut             bool   `json:"timed_out"`
	PageCount            int    `json:"page_count"`
	IsTagged             bool   `json:"is_tagged"`
	TotalImages          int    `json:"total_images"`
	ImagesWithoutAltText int    `json:"images_without_alt_text"`
	DurationMs           int64  `json:"duration_ms"`
}

func NewSession(id, filename, path string, warnings []string) *Session {
	now := time.Now()
	if warnings == nil {
		warnings = []string{}
	}
	return &Session{
		ID:        id,
		Filename:  filename,
		Path:      path,
		Status:    StatusQueued,
		Phase:     "queued",
		Warnings:  warnings,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reading runs fn with the session's file held for reading.
func (s *Session) Reading(fn func(path string) error) error {
	s.fileMu.RLock()
	defer s.fileMu.RUnlock()
	return fn(s.Path)
}

// Writing runs fn with exclusive access to the session's file.
func (s *Session) Writing(fn func(path string) error) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return fn(s.Path)
}

// SetStatus updates status atomically.
func (s *Session) SetStatus(status JobStatus, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.Phase = phase
	s.UpdatedAt = time.Now()
}

// AddError records an error.
func (s *Session) AddError(err string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
	s.UpdatedAt = time.Now()
}

func (s *Session) setSummary(sum *Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = sum
	s.ContentHash = sum.CacheKey
	s.UpdatedAt = time.Now()
}

// MarkRemediated records a successful write to the session's file. The
// previous summary no longer describes the file.
func (s *Session) MarkRemediated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Remediated++
	s.summary = nil
	s.UpdatedAt = time.Now()
}

// Touch extends the session's lifetime.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
}

func (s *Session) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// SessionSnapshot is a read-only, JSON-safe copy of session state.
type SessionSnapshot struct {
	ID         string    `json:"pdf_id"`
	Filename   string    `json:"filename"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Remediated int       `json:"images_tagged"`
	Errors     []string  `json:"errors"`
	Warnings   []string  `json:"warnings"`
	Summary    *Summary  `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := append([]string{}, s.errors...)
	var sum *Summary
	if s.summary != nil {
		c := *s.summary
		sum = &c
	}
	return SessionSnapshot{
		ID:         s.ID,
		Filename:   s.Filename,
		Status:     s.Status,
		Phase:      s.Phase,
		Remediated: s.Remediated,
		Errors:     errs,
		Warnings:   append([]string{}, s.Warnings...),
		Summary:    sum,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// SessionStore is a thread-safe in-memory session registry with TTL
// eviction. Evicted sessions have their file removed.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *SessionStore) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes the session and its file. It reports whether the session
// existed.
func (s *SessionStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, removeFile(sess.Path)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were evicted.
func (s *SessionStore) Cleanup() int {
	now := time.Now()
	var expired []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUpdate()) > s.ttl {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		removeFile(sess.Path)
	}
	return len(expired)
}

// Clear removes every session and its file.
func (s *SessionStore) Clear() int {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		removeFile(sess.Path)
	}
	return len(all)
}

func removeFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
