// Package metrics exposes Prometheus metrics for loaders.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rshade/fetchview/internal/loadable"
)

// Label values for the loader_state gauge, one series per kind.
var allKinds = []loadable.Kind{
	loadable.KindIdle,
	loadable.KindLoading,
	loadable.KindLoaded,
	loadable.KindFailed,
}

// Collector implements loadable.Observer by recording Prometheus metrics.
// Labels are bounded: loader names come from code, never from user data.
type Collector struct {
	fetchesStarted  *prometheus.CounterVec
	fetchesFinished *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	state           *prometheus.GaugeVec
}

// NewCollector registers the loader metrics with reg.
// Registering twice on the same registry panics, as with promauto.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		fetchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fetchview_fetches_started_total",
			Help: "Total number of fetches started, by loader and trigger.",
		}, []string{"loader", "trigger"}),

		fetchesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fetchview_fetches_finished_total",
			Help: "Total number of fetches finished, by loader, trigger and outcome.",
		}, []string{"loader", "trigger", "outcome"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fetchview_fetch_duration_seconds",
			Help:    "Time from fetch start to completion, by loader and outcome.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), //nolint:mnd // 5ms to ~10s.
		}, []string{"loader", "outcome"}),

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fetchview_state_transitions_total",
			Help: "Total number of lifecycle state transitions, by loader and target state.",
		}, []string{"loader", "from", "to"}),

		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fetchview_loader_state",
			Help: "Current lifecycle state of each loader (1 for the active state, 0 otherwise).",
		}, []string{"loader", "state"}),
	}
}

// FetchStarted implements loadable.Observer.
func (c *Collector) FetchStarted(loader string, trigger loadable.Trigger) {
	c.fetchesStarted.WithLabelValues(loader, trigger.String()).Inc()
}

// FetchFinished implements loadable.Observer.
func (c *Collector) FetchFinished(
	loader string,
	trigger loadable.Trigger,
	outcome loadable.Outcome,
	elapsed time.Duration,
) {
	c.fetchesFinished.WithLabelValues(loader, trigger.String(), string(outcome)).Inc()
	c.fetchDuration.WithLabelValues(loader, string(outcome)).Observe(elapsed.Seconds())
}

// Transitioned implements loadable.Observer.
func (c *Collector) Transitioned(loader string, from, to loadable.Kind) {
	c.transitions.WithLabelValues(loader, from.String(), to.String()).Inc()
	for _, k := range allKinds {
		v := 0.0
		if k == to {
			v = 1
		}
		c.state.WithLabelValues(loader, k.String()).Set(v)
	}
}
