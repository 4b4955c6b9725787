// Package metrics exposes Ferry's Prometheus metrics: proxied request
// outcomes and latencies per endpoint, endpoint health, bans, probe
// outcomes, and reconfigurations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all Ferry metrics against one registry.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	attemptsPerReq   prometheus.Histogram
	endpointHealthy  *prometheus.GaugeVec
	bansTotal        *prometheus.CounterVec
	probesTotal      *prometheus.CounterVec
	reconfigsTotal   prometheus.Counter
	activeGeneration prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
// namespace defaults to "ferry".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "ferry"
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Proxied requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time to upstream response headers per endpoint.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		attemptsPerReq: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempts_per_request",
			Help:      "Endpoint attempts consumed per inbound request.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
		}),
		endpointHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoint_healthy",
			Help:      "Whether an endpoint is currently healthy (1) or banned (0).",
		}, []string{"endpoint"}),
		bansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_bans_total",
			Help:      "Ban transitions per endpoint.",
		}, []string{"endpoint"}),
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Synthetic probes by kind (health, speed) and outcome.",
		}, []string{"kind", "outcome"}),
		reconfigsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconfigurations_total",
			Help:      "Successful generation swaps.",
		}),
		activeGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_generation",
			Help:      "Identifier of the active endpoint generation.",
		}),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.attemptsPerReq,
		c.endpointHealthy,
		c.bansTotal,
		c.probesTotal,
		c.reconfigsTotal,
		c.activeGeneration,
	)
	return c
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one proxied request outcome against an endpoint.
// outcome is "success", "upstream_error", or "connection_error".
func (c *Collector) RecordRequest(endpoint, outcome string, d time.Duration) {
	c.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome == "success" {
		c.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// RecordAttempts records how many endpoint attempts one request consumed.
func (c *Collector) RecordAttempts(n int) {
	c.attemptsPerReq.Observe(float64(n))
}

// SetEndpointHealthy updates an endpoint's health gauge.
func (c *Collector) SetEndpointHealthy(endpoint string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	c.endpointHealthy.WithLabelValues(endpoint).Set(v)
}

// RecordBan counts a ban transition for an endpoint.
func (c *Collector) RecordBan(endpoint string) {
	c.bansTotal.WithLabelValues(endpoint).Inc()
	c.SetEndpointHealthy(endpoint, false)
}

// RecordProbe counts a probe by kind ("health" or "speed") and outcome
// ("success" or "failure").
func (c *Collector) RecordProbe(kind string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.probesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordReconfiguration counts a generation swap and updates the active
// generation gauge.
func (c *Collector) RecordReconfiguration(generation int64) {
	c.reconfigsTotal.Inc()
	c.activeGeneration.Set(float64(generation))
}

// ResetEndpoints clears per-endpoint series after a generation swap so
// stale endpoints stop being reported.
func (c *Collector) ResetEndpoints() {
	c.endpointHealthy.Reset()
}
