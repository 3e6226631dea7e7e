package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshotEmpty(t *testing.T) {
	s := NewStats()
	snap := s.Snapshot()

	assert.Zero(t, snap.SearchesPerformed)
	assert.Zero(t, snap.SuccessfulSearches)
	assert.Zero(t, snap.FailedSearches)
	assert.Zero(t, snap.SuccessRate)
	assert.Zero(t, snap.Latency.SampleSize)
}

func TestStatsCounters(t *testing.T) {
	s := NewStats()

	for i := 0; i < 4; i++ {
		s.RecordSubmitted()
	}
	s.RecordOutcome(OutcomeResolved, 100*time.Millisecond)
	s.RecordOutcome(OutcomeResolved, 200*time.Millisecond)
	s.RecordOutcome(OutcomeNotFound, 50*time.Millisecond)
	s.RecordOutcome(OutcomeExpired, 30*time.Second)

	snap := s.Snapshot()
	assert.Equal(t, uint64(4), snap.SearchesPerformed)
	assert.Equal(t, uint64(2), snap.SuccessfulSearches)
	assert.Equal(t, uint64(2), snap.FailedSearches)
	assert.InDelta(t, 50.0, snap.SuccessRate, 0.001)
	assert.Equal(t, 4, snap.Latency.SampleSize)
	assert.Equal(t, int64(30*time.Second), snap.Latency.LastNs)
}

func TestStatsCapacityRejectionCountsSubmittedOnly(t *testing.T) {
	s := NewStats()

	// Rejected submissions never reach a terminal state, so only the
	// performed counter moves.
	s.RecordSubmitted()

	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.SearchesPerformed)
	assert.Zero(t, snap.SuccessfulSearches)
	assert.Zero(t, snap.FailedSearches)
	assert.Zero(t, snap.SuccessRate)
}

func TestStatsUptimeFormatted(t *testing.T) {
	s := NewStats()
	s.now = func() time.Time { return s.startTime.Add(3*time.Hour + 25*time.Minute + 7*time.Second) }

	snap := s.Snapshot()
	assert.Equal(t, "03:25:07", snap.UptimeFormatted)
	assert.InDelta(t, 12307.0, snap.UptimeSeconds, 0.5)
}

func TestLatencyWindowPercentiles(t *testing.T) {
	lw := newLatencyWindow(10)
	for i := 1; i <= 10; i++ {
		lw.Add(time.Duration(i) * time.Millisecond)
	}

	snap := lw.Snapshot()
	assert.Equal(t, 10, snap.SampleSize)
	assert.Equal(t, int64(10*time.Millisecond), snap.LastNs)
	assert.InDelta(t, float64(5500*time.Microsecond), float64(snap.P50Ns), float64(time.Millisecond))
	assert.GreaterOrEqual(t, snap.P99Ns, snap.P95Ns)
	assert.GreaterOrEqual(t, snap.P95Ns, snap.P50Ns)
}

func TestLatencyWindowWrapsAround(t *testing.T) {
	lw := newLatencyWindow(4)
	for i := 1; i <= 6; i++ {
		lw.Add(time.Duration(i) * time.Millisecond)
	}

	snap := lw.Snapshot()
	assert.Equal(t, 4, snap.SampleSize)
	// Only the last four samples (3ms..6ms) remain.
	assert.Equal(t, int64(3*time.Millisecond), percentile([]int64{int64(3 * time.Millisecond)}, 0))
	assert.GreaterOrEqual(t, snap.P50Ns, int64(3*time.Millisecond))
}
