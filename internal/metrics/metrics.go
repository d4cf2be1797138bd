// Package metrics exposes poll-cycle counters for the flash news scheduler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace = "newsflash"
	Subsystem = "poller"
)

// Metrics implements the scheduler's poll observer on top of Prometheus collectors.
type Metrics struct {
	reg *prometheus.Registry

	PollsTotal        prometheus.Counter
	PollFailuresTotal prometheus.Counter
	ItemsFetchedTotal prometheus.Counter
	ItemsNewTotal     prometheus.Counter
	SnapshotItems     prometheus.Gauge
	LastPollTimestamp prometheus.Gauge
}

// New registers every collector on a private registry together with the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		PollsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "polls_total",
			Help:      "Total number of completed poll cycles",
		}),
		PollFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "poll_failures_total",
			Help:      "Total number of poll cycles that reported a failure",
		}),
		ItemsFetchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "items_fetched_total",
			Help:      "Total number of items returned by the feed",
		}),
		ItemsNewTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "items_new_total",
			Help:      "Total number of previously unseen items merged into the snapshot",
		}),
		SnapshotItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "snapshot_items",
			Help:      "Number of items currently held in the snapshot",
		}),
		LastPollTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the most recent poll cycle",
		}),
	}
}

func (m *Metrics) ObservePoll(fetched, fresh, stored int) {
	m.PollsTotal.Inc()
	m.LastPollTimestamp.SetToCurrentTime()
	m.ItemsFetchedTotal.Add(float64(fetched))
	m.ItemsNewTotal.Add(float64(fresh))
	m.SnapshotItems.Set(float64(stored))
}

// ObserveSnapshot tracks snapshot size changes that happen outside a poll.
func (m *Metrics) ObserveSnapshot(stored int) {
	m.SnapshotItems.Set(float64(stored))
}

func (m *Metrics) ObserveFailure() {
	m.PollFailuresTotal.Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
