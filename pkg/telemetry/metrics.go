package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "remoteflow"

// Result labels for chain and release counters.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultSwallowed = "swallowed"
)

// Metrics holds the Prometheus collectors for remote calls and proxies. All
// methods are safe on a nil receiver so callers can leave metrics unwired.
type Metrics struct {
	RPCCalls       *prometheus.CounterVec
	RPCDuration    *prometheus.HistogramVec
	Chains         *prometheus.CounterVec
	Releases       *prometheus.CounterVec
	LiveProxies    prometheus.Gauge
	EngineHandles  prometheus.Gauge
	EngineRequests *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Passing nil uses a private
// registry, which keeps tests from colliding on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "calls_total",
				Help:      "Total remote calls by method and status code",
			},
			[]string{"method", "code"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "call_seconds",
				Help:      "Remote call latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method"},
		),
		Chains: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "chains_total",
				Help:      "Chain requests issued by proxies",
			},
			[]string{"result"},
		),
		Releases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "releases_total",
				Help:      "Delete requests issued at proxy teardown; swallowed counts failures that were ignored",
			},
			[]string{"result"},
		),
		LiveProxies: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "live_proxies",
				Help:      "Proxies constructed and not yet released",
			},
		),
		EngineHandles: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "handles_live",
				Help:      "Workflows held by the dev engine",
			},
		),
		EngineRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "requests_total",
				Help:      "Requests served by the dev engine",
			},
			[]string{"method", "code"},
		),
	}
}

// ObserveRPC records one remote call.
func (m *Metrics) ObserveRPC(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RPCCalls.WithLabelValues(method, code).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ChainResult counts a chain outcome.
func (m *Metrics) ChainResult(result string) {
	if m == nil {
		return
	}
	m.Chains.WithLabelValues(result).Inc()
}

// ReleaseResult counts a release outcome.
func (m *Metrics) ReleaseResult(result string) {
	if m == nil {
		return
	}
	m.Releases.WithLabelValues(result).Inc()
}

// ProxyOpened increments the live proxy gauge.
func (m *Metrics) ProxyOpened() {
	if m == nil {
		return
	}
	m.LiveProxies.Inc()
}

// ProxyClosed decrements the live proxy gauge.
func (m *Metrics) ProxyClosed() {
	if m == nil {
		return
	}
	m.LiveProxies.Dec()
}

// EngineServed records a dev engine request and the resulting handle count.
func (m *Metrics) EngineServed(method, code string, live int) {
	if m == nil {
		return
	}
	m.EngineRequests.WithLabelValues(method, code).Inc()
	m.EngineHandles.Set(float64(live))
}
