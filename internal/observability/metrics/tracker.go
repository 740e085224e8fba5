// Package metrics accumulates process-lifetime sync and call statistics and
// derives the rollup health verdict from freshness and success-rate
// thresholds. Counters only increase until restart; duration history keeps the
// most recent 100 samples per series.
package metrics

import (
	"sync"
	"time"

	"github.com/storably/stashsync/internal/clock"
)

const durationWindow = 100

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// minimum cumulative success ratio for the API to be considered healthy.
const healthySuccessRatio = 0.95

type series struct {
	Total     int64
	Success   int64
	Failure   int64
	durations []float64 // milliseconds, most recent last
}

func (s *series) record(success bool, d time.Duration) {
	s.Total++
	if success {
		s.Success++
	} else {
		s.Failure++
	}
	s.durations = append(s.durations, float64(d.Milliseconds()))
	if len(s.durations) > durationWindow {
		s.durations = s.durations[len(s.durations)-durationWindow:]
	}
}

func (s *series) avgDurationMs() float64 {
	if len(s.durations) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.durations {
		sum += v
	}
	return sum / float64(len(s.durations))
}

type syncSeries struct {
	series
	LastRun     time.Time
	LastSuccess time.Time
}

// Tracker is the single shared metrics aggregator. It is safe for concurrent
// use.
type Tracker struct {
	mu          sync.Mutex
	clock       clock.Clock
	freshness   time.Duration
	calls       map[string]*series
	syncs       map[string]*syncSeries
	instruments *Instruments
}

// NewTracker registers the given sync categories up front so a category that
// has never run still shows up (unhealthy) in the verdict.
func NewTracker(clk clock.Clock, freshness time.Duration, categories []string, instruments *Instruments) *Tracker {
	syncs := make(map[string]*syncSeries, len(categories))
	for _, name := range categories {
		syncs[name] = &syncSeries{}
	}
	return &Tracker{
		clock:       clk,
		freshness:   freshness,
		calls:       map[string]*series{},
		syncs:       syncs,
		instruments: instruments,
	}
}

// RecordCall accumulates one remote/API call outcome under an operation label.
func (t *Tracker) RecordCall(operation string, success bool, d time.Duration) {
	t.mu.Lock()
	s, ok := t.calls[operation]
	if !ok {
		s = &series{}
		t.calls[operation] = s
	}
	s.record(success, d)
	t.mu.Unlock()

	t.instruments.recordCall(operation, success, d)
}

// RecordSync accumulates one sync run outcome under an entity category and
// advances its freshness timestamps.
func (t *Tracker) RecordSync(category string, success bool, d time.Duration) {
	now := t.clock.Now()

	t.mu.Lock()
	s, ok := t.syncs[category]
	if !ok {
		s = &syncSeries{}
		t.syncs[category] = s
	}
	s.record(success, d)
	s.LastRun = now
	if success {
		s.LastSuccess = now
	}
	t.mu.Unlock()

	t.instruments.recordSync(category, success, d)
}

// SeriesSnapshot is the exported view of one tracked series.
type SeriesSnapshot struct {
	Total         int64   `json:"total"`
	Success       int64   `json:"success"`
	Failure       int64   `json:"failure"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	Samples       int     `json:"samples"`
}

// SyncSnapshot extends SeriesSnapshot with freshness timestamps.
type SyncSnapshot struct {
	SeriesSnapshot
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// Snapshot is the verbatim JSON payload served by the metrics endpoint.
type Snapshot struct {
	Calls map[string]SeriesSnapshot `json:"calls"`
	Syncs map[string]SyncSnapshot   `json:"syncs"`
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Calls: make(map[string]SeriesSnapshot, len(t.calls)),
		Syncs: make(map[string]SyncSnapshot, len(t.syncs)),
	}
	for name, s := range t.calls {
		snap.Calls[name] = SeriesSnapshot{
			Total: s.Total, Success: s.Success, Failure: s.Failure,
			AvgDurationMs: s.avgDurationMs(), Samples: len(s.durations),
		}
	}
	for name, s := range t.syncs {
		item := SyncSnapshot{SeriesSnapshot: SeriesSnapshot{
			Total: s.Total, Success: s.Success, Failure: s.Failure,
			AvgDurationMs: s.avgDurationMs(), Samples: len(s.durations),
		}}
		if !s.LastRun.IsZero() {
			lastRun := s.LastRun
			item.LastRun = &lastRun
		}
		if !s.LastSuccess.IsZero() {
			lastSuccess := s.LastSuccess
			item.LastSuccess = &lastSuccess
		}
		snap.Syncs[name] = item
	}
	return snap
}
