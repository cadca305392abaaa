// Package metrics exposes Prometheus metrics for the monitor service. All
// methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service on a private
// registry. A nil *Metrics records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	pipelineDuration  *prometheus.HistogramVec
	pipelineEmpty     *prometheus.CounterVec
	pipelinePoints    *prometheus.GaugeVec
	ingestTotal       *prometheus.CounterVec
	wsClients         prometheus.Gauge
}

// New creates the collectors on a private registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "co2_pipeline_duration_seconds",
			Help:    "Histogram of analysis pipeline durations by source.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"source"}),
		pipelineEmpty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "co2_pipeline_empty_total",
			Help: "Total pipeline runs that produced no result, by source.",
		}, []string{"source"}),
		pipelinePoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "co2_pipeline_points",
			Help: "Number of points in the last analysed series, by source.",
		}, []string{"source"}),
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "co2_ingest_messages_total",
			Help: "Total live feed messages by outcome (stored, rejected, failed).",
		}, []string{"outcome"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "co2_websocket_clients",
			Help: "Number of connected live monitor websocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.pipelineDuration,
		m.pipelineEmpty,
		m.pipelinePoints,
		m.ingestTotal,
		m.wsClients,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and observes their duration under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PipelineRun records one analysis run. points is 0 when nothing was produced.
func (m *Metrics) PipelineRun(source string, duration time.Duration, points int) {
	if m == nil {
		return
	}
	m.pipelineDuration.WithLabelValues(source).Observe(duration.Seconds())
	if points == 0 {
		m.pipelineEmpty.WithLabelValues(source).Inc()
	}
	m.pipelinePoints.WithLabelValues(source).Set(float64(points))
}

// Ingested records the outcome of one live feed message.
func (m *Metrics) Ingested(outcome string) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(outcome).Inc()
}

// ClientConnected adjusts the websocket client gauge by delta.
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.wsClients.Add(float64(delta))
}
