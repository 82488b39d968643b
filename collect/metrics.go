package collect

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments collection runs. Serve mode exposes these through
// the default registry; tests pass their own.
type Metrics struct {
	Runs            prometheus.Counter
	RunDuration     prometheus.Summary
	EventsCollected *prometheus.CounterVec
	SourceFailures  *prometheus.CounterVec
	InvalidRecords  prometheus.Counter
}

// NewMetrics builds and registers the collection metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venuefeed",
			Name:      "runs_total",
			Help:      "Number of collection runs",
		}),
		RunDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "venuefeed",
			Name:      "run_duration_seconds",
			Help:      "Time spent per collection run",
		}),
		EventsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuefeed",
			Name:      "events_collected_total",
			Help:      "Events successfully extracted, by source",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuefeed",
			Name:      "source_failures_total",
			Help:      "Sources that ultimately failed, by failure kind",
		}, []string{"kind"}),
		InvalidRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venuefeed",
			Name:      "invalid_records_total",
			Help:      "Structurally invalid records dropped during normalization",
		}),
	}
	reg.MustRegister(m.Runs, m.RunDuration, m.EventsCollected, m.SourceFailures, m.InvalidRecords)
	return m
}
