package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core instrumentation-layer metrics. Domain code
// records through the typed helpers, which are nil-safe so call sites do not
// need to care whether a session carries metrics.
type Metrics struct {
	// Registry metrics
	RegistrationsTotal   *prometheus.CounterVec
	DeregistrationsTotal *prometheus.CounterVec
	LiveElements         prometheus.Gauge
	MissingNames         prometheus.Counter

	// Container metrics
	ElementsCreated  *prometheus.CounterVec
	ElementsDisposed *prometheus.CounterVec

	// Event stream metrics
	EventsRecorded  *prometheus.CounterVec
	EventsPublished prometheus.Counter
	EventsThrottled prometheus.Counter

	// Validator metrics
	ValidationViolations *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all core metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "registry",
				Name:      "registrations_total",
				Help:      "Total number of element registrations",
			},
			[]string{"kind"},
		),

		DeregistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "registry",
				Name:      "deregistrations_total",
				Help:      "Total number of element deregistrations",
			},
			[]string{"kind"},
		),

		LiveElements: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "statekit",
				Subsystem: "registry",
				Name:      "live_elements",
				Help:      "Number of currently registered elements",
			},
		),

		MissingNames: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "registry",
				Name:      "missing_names_total",
				Help:      "Total number of required-but-unsupplied name reports",
			},
		),

		ElementsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "container",
				Name:      "elements_created_total",
				Help:      "Total number of dynamic elements created, per container",
			},
			[]string{"container"},
		),

		ElementsDisposed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "container",
				Name:      "elements_disposed_total",
				Help:      "Total number of dynamic elements disposed, per container",
			},
			[]string{"container"},
		),

		EventsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "events",
				Name:      "recorded_total",
				Help:      "Total number of event brackets recorded",
			},
			[]string{"category"},
		),

		EventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of event records published to the stream",
			},
		),

		EventsThrottled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "events",
				Name:      "throttled_total",
				Help:      "Total number of high-frequency event publishes dropped by the rate limiter",
			},
		),

		ValidationViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statekit",
				Subsystem: "validation",
				Name:      "violations_total",
				Help:      "Total number of API violations, per kind",
			},
			[]string{"kind"},
		),
	}
}

func kindLabel(dynamic bool) string {
	if dynamic {
		return "dynamic"
	}
	return "static"
}

// RecordRegistration increments the registration counter and the live gauge.
func (c *Metrics) RecordRegistration(dynamic bool) {
	if c == nil {
		return
	}
	c.RegistrationsTotal.WithLabelValues(kindLabel(dynamic)).Inc()
	c.LiveElements.Inc()
}

// RecordDeregistration increments the deregistration counter and decrements
// the live gauge.
func (c *Metrics) RecordDeregistration(dynamic bool) {
	if c == nil {
		return
	}
	c.DeregistrationsTotal.WithLabelValues(kindLabel(dynamic)).Inc()
	c.LiveElements.Dec()
}

// RecordMissingName increments the missing-name counter.
func (c *Metrics) RecordMissingName() {
	if c == nil {
		return
	}
	c.MissingNames.Inc()
}

// RecordElementCreated increments the per-container creation counter.
func (c *Metrics) RecordElementCreated(container string) {
	if c == nil {
		return
	}
	c.ElementsCreated.WithLabelValues(container).Inc()
}

// RecordElementDisposed increments the per-container disposal counter.
func (c *Metrics) RecordElementDisposed(container string) {
	if c == nil {
		return
	}
	c.ElementsDisposed.WithLabelValues(container).Inc()
}

// RecordEvent increments the per-category recorded-event counter.
func (c *Metrics) RecordEvent(category string) {
	if c == nil {
		return
	}
	c.EventsRecorded.WithLabelValues(category).Inc()
}

// RecordEventPublished increments the published-event counter.
func (c *Metrics) RecordEventPublished() {
	if c == nil {
		return
	}
	c.EventsPublished.Inc()
}

// RecordEventThrottled increments the throttled-publish counter.
func (c *Metrics) RecordEventThrottled() {
	if c == nil {
		return
	}
	c.EventsThrottled.Inc()
}

// RecordViolation increments the per-kind validation violation counter.
func (c *Metrics) RecordViolation(kind string) {
	if c == nil {
		return
	}
	c.ValidationViolations.WithLabelValues(kind).Inc()
}
