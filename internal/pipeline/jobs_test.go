package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSession_StateTransitions(t *testing.T) {
	sess := NewSession("s-1", "a.pdf", "", nil)
	if sess.Status != StatusQueued {
		t.Fatalf("expected status %q, got %q", StatusQueued, sess.Status)
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExtracting, "extracting"},
		{StatusCompleted, "done"},
	}
	for _, tr := range transitions {
		before := sess.UpdatedAt
		time.Sleep(time.Millisecond)
		sess.SetStatus(tr.status, tr.phase)

		if sess.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, sess.Status)
		}
		if sess.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, sess.Phase)
		}
		if !sess.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestSession_SnapshotCopies(t *testing.T) {
	sess := NewSession("s-2", "a.pdf", "", []string{"Large file (12MB) may take longer"})
	sess.AddError("boom")
	sess.setSummary(&Summary{CacheKey: "abc", TotalImages: 2})

	snap := sess.Snapshot()
	if len(snap.Errors) != 1 || snap.Errors[0] != "boom" {
		t.Errorf("expected one error, got %v", snap.Errors)
	}
	if len(snap.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", snap.Warnings)
	}
	if snap.Summary == nil || snap.Summary.TotalImages != 2 {
		t.Fatalf("expected summary, got %+v", snap.Summary)
	}
	if sess.ContentHash != "abc" {
		t.Errorf("expected content hash abc, got %q", sess.ContentHash)
	}

	snap.Summary.TotalImages = 99
	if sess.Snapshot().Summary.TotalImages != 2 {
		t.Error("expected snapshot summary to be a copy")
	}
}

func TestSession_MarkRemediatedDropsSummary(t *testing.T) {
	sess := NewSession("s-3", "a.pdf", "", nil)
	sess.setSummary(&Summary{CacheKey: "abc"})
	sess.MarkRemediated()

	snap := sess.Snapshot()
	if snap.Summary != nil {
		t.Error("expected summary to be cleared")
	}
	if snap.Remediated != 1 {
		t.Errorf("expected 1 remediation, got %d", snap.Remediated)
	}
}

func TestSession_SnapshotErrorsNotNil(t *testing.T) {
	snap := NewSession("s-4", "a.pdf", "", nil).Snapshot()
	if snap.Errors == nil || snap.Warnings == nil {
		t.Error("expected non-nil errors and warnings in snapshot")
	}
}

func writeTemp(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSessionStore_PutGetDelete(t *testing.T) {
	store := NewSessionStore(time.Hour)
	path := writeTemp(t)
	store.Put(NewSession("a", "a.pdf", path, nil))

	if store.Get("a") == nil {
		t.Fatal("expected to get session back")
	}
	ok, err := store.Delete("a")
	if !ok || err != nil {
		t.Fatalf("expected delete to succeed, got %v %v", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected file removed, got %v", err)
	}
	if ok, _ := store.Delete("a"); ok {
		t.Error("expected second delete to report missing")
	}
}

func TestSessionStore_TTLCleanup(t *testing.T) {
	store := NewSessionStore(50 * time.Millisecond)
	oldPath := writeTemp(t)
	store.Put(NewSession("old", "old.pdf", oldPath, nil))

	time.Sleep(100 * time.Millisecond)
	store.Put(NewSession("new", "new.pdf", "", nil))

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 eviction, got %d", n)
	}
	if store.Get("old") != nil {
		t.Error("expected expired session to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh session to survive cleanup")
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("expected expired file removed, got %v", err)
	}
}
