// Package metrics provides Prometheus metrics for the chakra gesture engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the engine's metrics and the registry they live in.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// gesture engine
	transitions     *prometheus.CounterVec
	events          *prometheus.CounterVec
	traceOutcomes   *prometheus.CounterVec
	continuousAngle *prometheus.GaugeVec
	handsTracked    prometheus.Gauge
	tickDuration    prometheus.Histogram
	framesIngested  prometheus.Counter

	// plugins
	pluginRuns     *prometheus.CounterVec
	pluginDuration prometheus.Histogram
	pluginDropped  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager. Without WithRegistry it uses a fresh
// registry so the default Go collectors are not exported.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "chakra",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.transitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transitions_total",
		Help:      "Gesture state transitions by hand and state pair",
	}, []string{"hand", "from", "to"})

	m.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "interaction_events_total",
		Help:      "Commands sent to interactables by kind",
	}, []string{"kind"})

	m.traceOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trace_ticks_total",
		Help:      "Circular motion evaluations by outcome",
	}, []string{"outcome"})

	m.continuousAngle = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "continuous_angle_degrees",
		Help:      "Rotation accumulated around the current circle center",
	}, []string{"hand"})

	m.handsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hands_tracked",
		Help:      "Number of hands tracked in the last tick",
	})

	m.tickDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tick_duration_seconds",
		Help:      "Time spent processing one tick for all hands",
		Buckets:   m.histogramBuckets,
	})

	m.framesIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_ingested_total",
		Help:      "Hand frames received from tracker clients",
	})

	m.pluginRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "plugins",
		Name:      "runs_total",
		Help:      "Plugin executions by plugin and status",
	}, []string{"plugin", "status"})

	m.pluginDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "plugins",
		Name:      "run_duration_seconds",
		Help:      "Plugin execution time",
		Buckets:   m.histogramBuckets,
	})

	m.pluginDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "plugins",
		Name:      "dropped_total",
		Help:      "Plugin requests dropped because the queue was full",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Registry returns the registry the metrics are registered in.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RecordTransition(hand, from, to string) {
	if !m.enabled {
		return
	}
	m.transitions.WithLabelValues(hand, from, to).Inc()
}

func (m *Manager) RecordEvent(kind string) {
	if !m.enabled {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Manager) RecordTraceOutcome(outcome string) {
	if !m.enabled {
		return
	}
	m.traceOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Manager) SetContinuousAngle(hand string, degrees float64) {
	if !m.enabled {
		return
	}
	m.continuousAngle.WithLabelValues(hand).Set(degrees)
}

func (m *Manager) SetHandsTracked(n int) {
	if !m.enabled {
		return
	}
	m.handsTracked.Set(float64(n))
}

func (m *Manager) ObserveTick(seconds float64) {
	if !m.enabled {
		return
	}
	m.tickDuration.Observe(seconds)
}

func (m *Manager) RecordFrameIngested() {
	if !m.enabled {
		return
	}
	m.framesIngested.Inc()
}

func (m *Manager) RecordPluginRun(plugin, status string, seconds float64) {
	if !m.enabled {
		return
	}
	m.pluginRuns.WithLabelValues(plugin, status).Inc()
	m.pluginDuration.Observe(seconds)
}

func (m *Manager) RecordPluginDropped() {
	if !m.enabled {
		return
	}
	m.pluginDropped.Inc()
}

func (m *Manager) RecordHTTPRequest(route, method, status string, seconds float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(seconds)
}
