// Package metrics exposes Prometheus counters for download requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	fileSizeBytes   *prometheus.HistogramVec
	inProgress      prometheus.Gauge
}

func New(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Download requests by mode, platform and outcome.",
	}, []string{"mode", "platform", "outcome"})
	m.retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retries_total",
		Help:      "Retried yt-dlp attempts by mode.",
	}, []string{"mode"})
	m.durationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Wall time of one request including retries.",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}, []string{"mode"})
	m.fileSizeBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "file_size_bytes",
		Help:      "Size of downloaded files.",
		Buckets:   prometheus.ExponentialBuckets(1<<20, 4, 8),
	}, []string{"mode"})
	m.inProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "in_progress",
		Help:      "Requests currently running.",
	})
	m.registry.MustRegister(
		m.requestsTotal,
		m.retriesTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Start marks a request as running and returns the function that ends it.
func (m *Metrics) Start() func() {
	m.inProgress.Inc()
	return m.inProgress.Dec
}

// Observe records the outcome of a finished request. outcome is "success"
// or an error kind.
func (m *Metrics) Observe(mode, platform, outcome string, took time.Duration, size int64) {
	m.requestsTotal.WithLabelValues(mode, platform, outcome).Inc()
	m.durationSeconds.WithLabelValues(mode).Observe(took.Seconds())
	if size > 0 {
		m.fileSizeBytes.WithLabelValues(mode).Observe(float64(size))
	}
}

func (m *Metrics) Retry(mode string) {
	m.retriesTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
