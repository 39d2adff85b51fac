package neosocial

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the graph core. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	Inconsistent  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_query_duration_seconds",
				Help:      "Graph query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		QueryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_query_errors_total",
				Help:      "Total number of failed graph queries",
			},
			[]string{"operation"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interaction_transitions_total",
				Help:      "Total number of applied interaction transitions",
			},
			[]string{"interaction", "transition"},
		),
		Inconsistent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interaction_half_edges_total",
				Help:      "Exit transitions that found only one edge of a pair",
			},
			[]string{"interaction"},
		),
	}

	for _, c := range []prometheus.Collector{m.QueryDuration, m.QueryErrors, m.Transitions, m.Inconsistent} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeQuery(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.QueryErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) transition(interaction string, t Transition) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(interaction, t.String()).Inc()
}

func (m *Metrics) inconsistent(interaction string) {
	if m == nil {
		return
	}
	m.Inconsistent.WithLabelValues(interaction).Inc()
}
