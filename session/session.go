package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/c360/statekit/config"
	"github.com/c360/statekit/eventlog"
	"github.com/c360/statekit/iotype"
	"github.com/c360/statekit/metric"
	"github.com/c360/statekit/naming"
	"github.com/c360/statekit/validation"
)

// Session bundles the shared infrastructure one instrumented program runs
// on: the naming registry, the parametric type cache, the API validator,
// the event recorder, and metrics. Everything is dependency-injected;
// Default exists only as a process-wide convenience for entry points.
type Session struct {
	Naming    *naming.Registry
	Types     *iotype.Cache
	Validator *validation.Validator
	Recorder  *eventlog.Recorder
	Metrics   *metric.Registry

	config *config.SafeConfig
	logger *slog.Logger
	server *metric.Server
	nc     *nats.Conn // owned connection, closed by Close
}

// Option configures a Session.
type Option func(*options)

type options struct {
	logger *slog.Logger
	nc     *nats.Conn
}

// WithLogger sets the structured logger shared by the session's parts.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConn injects an existing NATS connection for event publishing. The
// session does not own an injected connection and will not close it.
func WithConn(nc *nats.Conn) Option {
	return func(o *options) {
		o.nc = nc
	}
}

// New builds a session from a validated configuration. A nil config means
// config.Default. The NATS connection is dialed only when the config names
// an event-stream URL and no connection was injected.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := metric.NewRegistry()

	registry, err := naming.NewRegistry(cfg.Session.Name,
		naming.WithMissingNamePolicy(cfg.MissingNamePolicy()),
		naming.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}

	validatorOpts := []validation.ValidatorOption{
		validation.WithLogger(logger),
		validation.WithMetrics(metrics.Metrics),
	}
	if !cfg.Validation.Enabled {
		validatorOpts = append(validatorOpts, validation.Disabled())
	}
	validator := validation.NewValidator(validatorOpts...)
	registry.AddListener(validator)

	s := &Session{
		Naming:    registry,
		Types:     iotype.NewCache(),
		Validator: validator,
		Metrics:   metrics,
		config:    config.NewSafeConfig(cfg),
		logger:    logger,
	}

	nc := o.nc
	if nc == nil && cfg.Events.URL != "" {
		nc, err = nats.Connect(cfg.Events.URL,
			nats.Name("statekit-"+cfg.Session.Name),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("session event stream: %w", err)
		}
		s.nc = nc
	}

	recorderOpts := []eventlog.RecorderOption{
		eventlog.WithLogger(logger),
		eventlog.WithMetrics(metrics.Metrics),
	}
	if nc != nil {
		recorderOpts = append(recorderOpts, eventlog.WithConn(nc))
	}
	if cfg.Events.SuppressHighFrequency {
		recorderOpts = append(recorderOpts, eventlog.SuppressHighFrequency())
	}
	if cfg.Events.PublishRateLimit > 0 {
		recorderOpts = append(recorderOpts, eventlog.WithHighFrequencyLimit(
			rate.Limit(cfg.Events.PublishRateLimit), cfg.Events.PublishBurst))
	}
	s.Recorder = eventlog.NewRecorder(cfg.Session.Name, recorderOpts...)

	if cfg.Metrics.Enabled {
		s.server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metrics)
	}

	return s, nil
}

// Config returns a copy of the session configuration.
func (s *Session) Config() *config.Config {
	return s.config.Get()
}

// Logger returns the session's structured logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Launch flushes the registry's buffered registrations and, when metrics
// serving is enabled, starts the endpoint in the background.
func (s *Session) Launch() error {
	if err := s.Naming.Launch(); err != nil {
		return fmt.Errorf("session launch: %w", err)
	}

	if s.server != nil {
		go func() {
			if err := s.server.Start(); err != nil {
				s.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	return nil
}

// MarkStartupComplete closes the static API surface. When the config names
// reference documents, the overrides document is diffed against the
// baseline here; without a baseline file the diff runs against a snapshot
// of the live registry. Violations accumulate on the Validator; the
// returned error covers document loading only.
func (s *Session) MarkStartupComplete() error {
	s.Validator.MarkStartupComplete()

	cfg := s.config.Get()
	if cfg.Validation.OverridesPath == "" {
		return nil
	}

	overrides, err := config.LoadOverrides(cfg.Validation.OverridesPath)
	if err != nil {
		return fmt.Errorf("session startup: %w", err)
	}

	var baseline validation.Baseline
	if cfg.Validation.BaselinePath != "" {
		baseline, err = config.LoadBaseline(cfg.Validation.BaselinePath)
		if err != nil {
			return fmt.Errorf("session startup: %w", err)
		}
	} else {
		baseline = validation.Snapshot(s.Naming)
	}

	s.Validator.ValidateOverrides(baseline, overrides)
	return nil
}

// Close checks bracket balance, stops the metrics endpoint, and closes the
// owned event-stream connection. An injected connection stays open.
func (s *Session) Close() error {
	err := s.Recorder.CheckBalanced()

	if s.server != nil {
		if stopErr := s.server.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}

	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}

	return err
}

var (
	defaultOnce    sync.Once
	defaultSession *Session
)

// Default returns the process-wide session, created on first use from the
// default configuration. Programs composing their own infrastructure
// should prefer New.
func Default() *Session {
	defaultOnce.Do(func() {
		s, err := New(nil)
		if err != nil {
			panic(fmt.Sprintf("session: default construction failed: %v", err))
		}
		defaultSession = s
	})
	return defaultSession
}
