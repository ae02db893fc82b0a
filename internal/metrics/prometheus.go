package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promMetrics holds the Prometheus collectors. Each service owns its own
// registry so several services can coexist in one process.
type promMetrics struct {
	registry         *prometheus.Registry
	analyses         *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	connectionTests  *prometheus.CounterVec
	httpDuration     prometheus.Histogram
}

func newPromMetrics() *promMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &promMetrics{
		registry: registry,
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_analyses_total",
			Help: "Total number of analyses by mode and outcome",
		}, []string{"mode", "success"}),
		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_analysis_duration_seconds",
			Help:    "Analysis latency in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"mode"}),
		connectionTests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_connection_tests_total",
			Help: "Total number of model connection tests by outcome",
		}, []string{"success"}),
		httpDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexus_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (p *promMetrics) observeAnalysis(success bool, duration time.Duration, mode string) {
	p.analyses.WithLabelValues(mode, strconv.FormatBool(success)).Inc()
	p.analysisDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (p *promMetrics) observeConnectionTest(success bool) {
	p.connectionTests.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// Handler serves the Prometheus exposition for this service
func (ms *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(ms.prom.registry, promhttp.HandlerOpts{})
}
