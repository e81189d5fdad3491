// Package metrics exposes Prometheus instrumentation for the refresh and
// render cycles.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the monitor's collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RefreshCycles       prometheus.Counter
	RefreshDuration     prometheus.Histogram
	FetchErrors         *prometheus.CounterVec
	DatasetRepositories prometheus.Gauge
	RenderTicks         prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		RefreshCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghmonitor_refresh_cycles_total",
			Help: "Total number of completed refresh cycles",
		}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ghmonitor_refresh_duration_seconds",
			Help:    "Duration of refresh cycles in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghmonitor_fetch_errors_total",
			Help: "Total number of failed fetches by facet",
		}, []string{"facet"}),
		DatasetRepositories: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ghmonitor_dataset_repositories",
			Help: "Number of repositories in the current dataset",
		}),
		RenderTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghmonitor_render_ticks_total",
			Help: "Total number of render ticks",
		}),
		registry: reg,
	}
}

// FetchFailed counts a failed fetch of one facet.
func (m *Metrics) FetchFailed(facet string) {
	m.FetchErrors.WithLabelValues(facet).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
