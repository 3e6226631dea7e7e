package bridge

import (
	"math"
	"sort"
	"sync"
	"time"
)

const latencySampleSize = 256

// Stats aggregates search counters for the status endpoint. A submission is
// counted once when it enters the engine; it is counted successful or failed
// only when a search that was actually admitted reaches its terminal state,
// so capacity-rejected submissions show up in the performed count alone.
type Stats struct {
	mu        sync.Mutex
	startTime time.Time
	now       func() time.Time

	performed  uint64
	successful uint64
	failed     uint64

	latency *latencyWindow
}

// NewStats creates a stats aggregator with the clock started now.
func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
		now:       time.Now,
		latency:   newLatencyWindow(latencySampleSize),
	}
}

// RecordSubmitted counts a search submission, admitted or not.
func (s *Stats) RecordSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performed++
}

// RecordOutcome counts the terminal state of an admitted search and samples
// its latency.
func (s *Stats) RecordOutcome(kind OutcomeKind, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == OutcomeResolved {
		s.successful++
	} else {
		s.failed++
	}
	s.latency.Add(latency)
}

// StatsSnapshot is a point-in-time view of the counters, shaped for the
// status endpoint.
type StatsSnapshot struct {
	SearchesPerformed  uint64  `json:"searches_performed"`
	SuccessfulSearches uint64  `json:"successful_searches"`
	FailedSearches     uint64  `json:"failed_searches"`
	SuccessRate        float64 `json:"success_rate"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	UptimeFormatted    string  `json:"uptime_formatted"`

	Latency LatencyMetrics `json:"latency"`
}

// LatencyMetrics summarizes search latency over a sliding sample window.
type LatencyMetrics struct {
	SampleSize int   `json:"sample_size"`
	P50Ns      int64 `json:"p50_ns"`
	P95Ns      int64 `json:"p95_ns"`
	P99Ns      int64 `json:"p99_ns"`
	AverageNs  int64 `json:"average_ns"`
	LastNs     int64 `json:"last_ns"`
}

// Snapshot returns the current counters. SuccessRate is a percentage of
// performed searches, zero when nothing has been performed yet.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	uptime := s.now().Sub(s.startTime)
	snap := StatsSnapshot{
		SearchesPerformed:  s.performed,
		SuccessfulSearches: s.successful,
		FailedSearches:     s.failed,
		UptimeSeconds:      uptime.Seconds(),
		UptimeFormatted:    formatUptime(uptime),
		Latency:            s.latency.Snapshot(),
	}
	if s.performed > 0 {
		snap.SuccessRate = float64(s.successful) / float64(s.performed) * 100
	}
	return snap
}

type latencyWindow struct {
	samples []int64
	next    int
	filled  int
	last    int64
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = latencySampleSize
	}
	return &latencyWindow{samples: make([]int64, size)}
}

func (lw *latencyWindow) Add(d time.Duration) {
	if lw == nil || len(lw.samples) == 0 {
		return
	}
	lw.samples[lw.next] = int64(d)
	lw.last = int64(d)
	lw.next = (lw.next + 1) % len(lw.samples)
	if lw.filled < len(lw.samples) {
		lw.filled++
	}
}

func (lw *latencyWindow) Snapshot() LatencyMetrics {
	var metrics LatencyMetrics
	if lw == nil || lw.filled == 0 {
		return metrics
	}
	samples := make([]int64, lw.filled)
	for i := 0; i < lw.filled; i++ {
		idx := lw.next - lw.filled + i
		if idx < 0 {
			idx += len(lw.samples)
		}
		samples[i] = lw.samples[idx]
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	metrics.SampleSize = lw.filled
	metrics.P50Ns = percentile(samples, 0.50)
	metrics.P95Ns = percentile(samples, 0.95)
	metrics.P99Ns = percentile(samples, 0.99)
	var sum int64
	for _, v := range samples {
		sum += v
	}
	metrics.AverageNs = sum / int64(len(samples))
	metrics.LastNs = lw.last
	return metrics
}

func percentile(samples []int64, quantile float64) int64 {
	if len(samples) == 0 {
		return 0
	}
	if quantile <= 0 {
		return samples[0]
	}
	if quantile >= 1 {
		return samples[len(samples)-1]
	}
	pos := quantile * float64(len(samples)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return samples[lower]
	}
	frac := pos - float64(lower)
	return samples[lower] + int64(float64(samples[upper]-samples[lower])*frac)
}
