package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// engineMetrics holds the bridge-level Prometheus collectors. Router-level
// message metrics come from the metrics middleware; these cover the search
// lifecycle itself.
type engineMetrics struct {
	searchesTotal *prometheus.CounterVec
	pending       prometheus.GaugeFunc
}

func newEngineMetrics(reg prometheus.Registerer, pendingCount func() float64) *engineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &engineMetrics{
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tunegate",
			Name:      "searches_total",
			Help:      "Terminal search outcomes, labelled by outcome kind.",
		}, []string{"outcome"}),
		pending: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tunegate",
			Name:      "pending_searches",
			Help:      "Searches currently awaiting a reply from the music bot.",
		}, pendingCount),
	}

	// Duplicate registration happens when two engines share a registerer in
	// tests; the counters still work, so it is not fatal.
	_ = reg.Register(m.searchesTotal)
	_ = reg.Register(m.pending)

	return m
}

func (m *engineMetrics) recordOutcome(kind OutcomeKind) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(kind.String()).Inc()
}
