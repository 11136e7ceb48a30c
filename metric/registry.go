package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/statekit/errors"
)

// Registry manages the Prometheus registry carrying the core metrics plus
// any collectors registered by embedding applications.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registered         map[string]prometheus.Collector
	mu                 sync.Mutex
}

// NewRegistry creates a metrics registry with the core metrics and the Go
// runtime collectors pre-registered.
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	r := &Registry{
		prometheusRegistry: prometheusRegistry,
		Metrics:            NewMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}
	r.registerCore()

	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Register adds an application collector under a unique name.
func (r *Registry) Register(name string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registered[name]; exists {
		return errors.WrapPrecondition(
			fmt.Errorf("collector %q already registered", name),
			"Registry", "Register", "duplicate collector check")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapPrecondition(err, "Registry", "Register",
				fmt.Sprintf("prometheus conflict for collector %q", name))
		}
		return errors.WrapStructural(err, "Registry", "Register",
			"prometheus registration")
	}

	r.registered[name] = collector
	return nil
}

// Unregister removes a previously registered application collector.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	collector, exists := r.registered[name]
	if !exists {
		return false
	}

	ok := r.prometheusRegistry.Unregister(collector)
	if ok {
		delete(r.registered, name)
	}
	return ok
}

func (r *Registry) registerCore() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.RegistrationsTotal,
		r.Metrics.DeregistrationsTotal,
		r.Metrics.LiveElements,
		r.Metrics.MissingNames,
		r.Metrics.ElementsCreated,
		r.Metrics.ElementsDisposed,
		r.Metrics.EventsRecorded,
		r.Metrics.EventsPublished,
		r.Metrics.EventsThrottled,
		r.Metrics.ValidationViolations,
	)
}
