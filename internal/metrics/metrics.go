// Package metrics holds the prometheus instruments of the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters groups every instrument the pipeline updates.
type Counters struct {
	LogsIngested     *prometheus.CounterVec
	BroadcastDropped prometheus.Counter
	LiveSubscribers  prometheus.Gauge
	MailDispatch     *prometheus.CounterVec
	RetentionPurged  prometheus.Counter

	// Gatherer serves /metrics.
	Gatherer prometheus.Gatherer
}

func newCounters() *Counters {
	return &Counters{
		LogsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logs_ingested_total",
			Help: "Number of log events persisted, by level.",
		}, []string{"level"}),
		BroadcastDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broadcast_dropped_total",
			Help: "Number of live subscribers dropped because they were slow or failing.",
		}),
		LiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "live_subscribers",
			Help: "Number of connected live subscribers.",
		}),
		MailDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_dispatch_total",
			Help: "Outcome of notification dispatches: sent, skipped, dropped, auth, protocol, transport, other.",
		}, []string{"result"}),
		RetentionPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_purged_total",
			Help: "Number of log events removed by the retention sweeper.",
		}),
	}
}

func (c *Counters) register(reg prometheus.Registerer) {
	reg.MustRegister(c.LogsIngested, c.BroadcastDropped, c.LiveSubscribers, c.MailDispatch, c.RetentionPurged)
}

// New registers the counters on the default registry.
func New() *Counters {
	c := newCounters()
	c.register(prometheus.DefaultRegisterer)
	c.Gatherer = prometheus.DefaultGatherer

	return c
}

// NewUnregistered registers the counters on a private registry. Used by
// one-shot commands and tests, which may build as many as they need.
func NewUnregistered() *Counters {
	reg := prometheus.NewRegistry()

	c := newCounters()
	c.register(reg)
	c.Gatherer = reg

	return c
}
