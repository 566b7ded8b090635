// Package stats keeps rolling latency aggregates for slow operations.
package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	ms int64
}

// Snapshot is a point-in-time aggregate of latency samples.
type Snapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Latency tracks call durations within a rolling window. Failed calls are
// counted separately and do not contribute to the percentiles.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	errors  []time.Time
	maxAge  time.Duration
	now     func() time.Time
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (l *Latency) Record(d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.pruneLocked(now)
	l.samples = append(l.samples, sample{at: now, ms: ms})
}

func (l *Latency) RecordError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.pruneLocked(now)
	l.errors = append(l.errors, now)
}

// Since records the time elapsed from start, or an error when err != nil.
func (l *Latency) Since(start time.Time, err error) {
	if err != nil {
		l.RecordError()
		return
	}
	l.Record(time.Since(start))
}

func (l *Latency) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.now())
	snap := Snapshot{Errors: len(l.errors)}
	if len(l.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(l.samples))
	var sum int64
	for _, s := range l.samples {
		values = append(values, s.ms)
		sum += s.ms
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	l.samples = slices.DeleteFunc(l.samples, func(s sample) bool { return s.at.Before(cutoff) })
	l.errors = slices.DeleteFunc(l.errors, func(t time.Time) bool { return t.Before(cutoff) })
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[upper])
	return lo + (hi-lo)*weight
}
