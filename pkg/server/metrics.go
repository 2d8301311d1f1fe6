package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "gesture").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for swipe duration in seconds.
	Buckets []float64

	// Registry is the registry the collectors are registered with.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithMetricsRegistry sets the registry.
func WithMetricsRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultSwipeBuckets cover the 0-500ms range a swipe is allowed to take,
// plus a tail for configurations with the time gate disabled.
var defaultSwipeBuckets = []float64{0.05, 0.1, 0.15, 0.2, 0.3, 0.4, 0.5, 0.75, 1, 2}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "gesture",
		Buckets:   defaultSwipeBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	sessionsDenied  prometheus.Counter
	eventsTotal     *prometheus.CounterVec
	swipesTotal     *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	swipeDuration   prometheus.Histogram
	decodeErrors    prometheus.Counter
	tracesDropped   prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help, label string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, []string{label})
	}

	return &Metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_active",
			Help:        "Number of connected touch surfaces",
			ConstLabels: config.ConstLabels,
		}),
		sessionsTotal:   counter("sessions_total", "Total number of sessions opened"),
		sessionsDenied:  counter("sessions_denied_total", "Handshakes rejected because the session limit was reached"),
		eventsTotal:     counterVec("events_total", "Client events received, by event type", "type"),
		swipesTotal:     counterVec("swipes_total", "Recognized swipes, by direction", "direction"),
		rejectionsTotal: counterVec("rejections_total", "Completed gestures that did not fire, by first failing gate", "reason"),
		swipeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "gesture_duration_seconds",
			Help:        "Duration of recognized swipes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		decodeErrors:  counter("decode_errors_total", "Frames or events that failed to decode"),
		tracesDropped: counter("traces_dropped_total", "Gesture traces the recorder could not hand to its sink"),
	}
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
	m.sessionsTotal.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *Metrics) sessionDenied() {
	if m == nil {
		return
	}
	m.sessionsDenied.Inc()
}

func (m *Metrics) event(eventType string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) swipe(direction string, seconds float64) {
	if m == nil {
		return
	}
	m.swipesTotal.WithLabelValues(direction).Inc()
	m.swipeDuration.Observe(seconds)
}

func (m *Metrics) rejection(reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) decodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) traceDropped() {
	if m == nil {
		return
	}
	m.tracesDropped.Inc()
}
