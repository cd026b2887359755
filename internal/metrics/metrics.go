// Package metrics exposes Prometheus counters for the dashboard's sync loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anndash"

// Outcome labels for ScrapeRuns.
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
)

type Metrics struct {
	FetchFailures *prometheus.CounterVec
	PollTicks     prometheus.Counter
	PollFailures  prometheus.Counter
	StartFailures prometheus.Counter
	ScrapeRuns    *prometheus.CounterVec
	JobRunning    prometheus.Gauge
	Toggles       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the dashboard metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed reads from the announcement API",
		}, []string{"resource", "kind"}),
		PollTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "poll_ticks_total",
			Help:      "Scrape status polls handled",
		}),
		PollFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "poll_failures_total",
			Help:      "Scrape status polls that failed",
		}),
		StartFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "start_failures_total",
			Help:      "Scrape start requests the API rejected or never answered",
		}),
		ScrapeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "runs_total",
			Help:      "Scrape runs by outcome",
		}, []string{"outcome"}),
		JobRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "running",
			Help:      "1 while a scrape job is being monitored",
		}),
		Toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_updates_total",
			Help:      "Review flag updates sent to the API",
		}, []string{"result"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
