package fulfillment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts fulfillment outcomes.
type Metrics struct {
	decisions *prometheus.CounterVec
	replays   prometheus.Counter
	shortfall prometheus.Counter
	hops      prometheus.Histogram
}

// NewMetrics registers the collectors with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_decisions_total",
			Help: "The total number of fulfillment decisions by resulting order status",
		}, []string{"status"}),
		replays: f.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_decision_replays_total",
			Help: "The total number of fulfill calls answered from a stored decision",
		}),
		shortfall: f.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_allocation_shortfall_units_total",
			Help: "The total number of requested units left unallocated",
		}),
		hops: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fulfillment_allocation_hops_used",
			Help:    "Locations beyond the first drawn from per allocation",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		}),
	}
}

func (m *Metrics) observe(d *Decision) {
	m.decisions.WithLabelValues(string(d.Status)).Inc()
	if d.Allocation != nil {
		m.shortfall.Add(float64(d.Allocation.Shortfall()))
		m.hops.Observe(float64(d.Allocation.HopsUsed))
	}
}
