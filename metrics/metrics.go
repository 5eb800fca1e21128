// Package metrics exposes Prometheus metrics of the tater pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taterboard"

// Metrics holds every collector the bot reports to.
type Metrics struct {
	VotesProcessed *prometheus.CounterVec
	PinUpdates     *prometheus.CounterVec
	SaveDuration   prometheus.Histogram
	Communities    prometheus.Gauge
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// New creates and registers the bot's metrics on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VotesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_processed_total",
			Help:      "Total number of tater reactions processed, by kind and result.",
		}, []string{"kind", "result"}),
		PinUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_updates_total",
			Help:      "Total number of pin announcements created, edited or deleted.",
		}, []string{"action"}),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Duration of saving every guild in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		Communities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "communities",
			Help:      "Number of guilds with a ledger in memory.",
		}),
	}

	reg.MustRegister(m.VotesProcessed, m.PinUpdates, m.SaveDuration, m.Communities)
	return m
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
