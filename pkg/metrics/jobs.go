package metrics

import "github.com/prometheus/client_golang/prometheus"

// JobMetrics instruments the background worker pool.
type JobMetrics struct {
	Processed *prometheus.CounterVec
	InFlight  prometheus.Gauge
	Enqueued  *prometheus.CounterVec
}

// NewJobMetrics registers the worker metrics with the default registerer.
// result is one of: ok, retry, requeue, drop.
func NewJobMetrics() *JobMetrics {
	m := &JobMetrics{
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "gateway",
			Name:      "jobs_processed_total",
			Help:      "Background jobs executed, partitioned by job type and result.",
		}, []string{"type", "result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Subsystem: "gateway",
			Name:      "jobs_inflight",
			Help:      "Background jobs currently executing in this process.",
		}),
		Enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "gateway",
			Name:      "jobs_enqueued_total",
			Help:      "Jobs pushed onto the queue, partitioned by job type.",
		}, []string{"type"}),
	}
	prometheus.MustRegister(m.Processed, m.InFlight, m.Enqueued)
	return m
}
