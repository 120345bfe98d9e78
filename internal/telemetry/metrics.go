// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the content hub.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

const namespace = "contenthub"

// Metrics holds all content hub Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Resolution metrics
	Probes             *prometheus.CounterVec
	ProbeDuration      *prometheus.HistogramVec
	Resolutions        *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	DegradedItems      *prometheus.CounterVec

	// HTTP metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter

	// History metrics
	HistorySamples *prometheus.CounterVec
}

// NewMetrics registers every metric on a fresh registry, together with the
// Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	initResolutionMetrics(m, factory)
	initHTTPMetrics(m, factory)

	m.HistorySamples = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_samples_total",
		Help:      "Price history samples by outcome",
	}, []string{"outcome"})

	return m
}

func initResolutionMetrics(m *Metrics, factory promauto.Factory) {
	m.Probes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Tracker probes by chain, content type and outcome",
	}, []string{"chain", "type", "outcome"})

	m.ProbeDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Time spent on one validation read",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	}, []string{"chain"})

	m.Resolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Finished resolutions by outcome",
	}, []string{"outcome"})

	m.ResolutionDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolution_duration_seconds",
		Help:      "Time from plan to winning probe",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	m.DegradedItems = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degraded_items_total",
		Help:      "Aggregated items replaced by a placeholder",
	}, []string{"operation"})
}

func initHTTPMetrics(m *Metrics, factory promauto.Factory) {
	m.Requests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status",
	}, []string{"route", "status"})

	m.RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	m.RateLimited = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected with 429",
	})
}

// ObserveProbe records one probe.
func (m *Metrics) ObserveProbe(chain contenthub.Chain, contentType contenthub.ContentType, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.Probes.WithLabelValues(string(chain), string(contentType), outcome).Inc()
	m.ProbeDuration.WithLabelValues(string(chain)).Observe(elapsed.Seconds())
}

// ObserveResolution records one finished resolution.
func (m *Metrics) ObserveResolution(outcome string, elapsed time.Duration) {
	m.Resolutions.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(elapsed.Seconds())
}

// IncDegraded counts a degraded aggregation item.
func (m *Metrics) IncDegraded(operation string) {
	m.DegradedItems.WithLabelValues(operation).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// IncRateLimited counts a rejected request.
func (m *Metrics) IncRateLimited() {
	m.RateLimited.Inc()
}

// ObserveSample records a history sampling outcome.
func (m *Metrics) ObserveSample(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.HistorySamples.WithLabelValues(outcome).Inc()
}

// Hooks returns service hooks feeding these metrics.
func (m *Metrics) Hooks() *contenthub.Hooks {
	return contenthub.MetricsHook(m)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
