package stats

import (
	"errors"
	"testing"
	"time"
)

func TestLatencySnapshotPercentiles(t *testing.T) {
	l := NewLatency(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		l.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := l.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatencyPrunesExpiredSamples(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLatency(time.Minute)
	l.now = func() time.Time { return now }

	l.Record(100 * time.Millisecond)
	l.RecordError()
	now = now.Add(2 * time.Minute)

	snap := l.Snapshot()
	if snap.Count != 0 || snap.Errors != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	l.Record(200 * time.Millisecond)
	snap = l.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected single 200ms sample, got %+v", snap)
	}
}

func TestLatencyClampsNegativeDuration(t *testing.T) {
	l := NewLatency(time.Hour)
	l.Record(-10 * time.Millisecond)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestLatencySinceCountsErrors(t *testing.T) {
	l := NewLatency(time.Hour)
	l.Since(time.Now(), errors.New("boom"))
	l.Since(time.Now(), nil)
	snap := l.Snapshot()
	if snap.Errors != 1 || snap.Count != 1 {
		t.Fatalf("expected 1 error and 1 sample, got %+v", snap)
	}
}
