package server

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts upload outcomes and generation latency.
type Metrics struct {
	Uploads        *prometheus.CounterVec
	UnitsProcessed prometheus.Counter
	Duration       prometheus.Histogram
}

func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rfq_uploads_total",
				Help: "Uploaded exports partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		UnitsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfq_units_processed_total",
			Help: "Elevator units extracted from successful uploads.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfq_generate_duration_seconds",
			Help:    "Time taken to generate a document.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.Uploads, m.UnitsProcessed, m.Duration} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register rfq metrics: %w", err)
		}
	}
	return m, nil
}
