package eventlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/c360/statekit/errors"
	"github.com/c360/statekit/metric"
)

// Category classifies the causal origin of an event bracket.
type Category int

const (
	// CategoryModel marks events originating from model state changes.
	CategoryModel Category = iota
	// CategoryUser marks events originating from direct user interaction.
	CategoryUser
	// CategoryWrapper marks events originating from external tooling.
	CategoryWrapper
	// CategoryOptOut marks events excluded from the recorded stream.
	CategoryOptOut
)

// String returns the wire label for the category.
func (c Category) String() string {
	switch c {
	case CategoryModel:
		return "model"
	case CategoryUser:
		return "user"
	case CategoryWrapper:
		return "wrapper"
	case CategoryOptOut:
		return "optOut"
	default:
		return "unknown"
	}
}

// Event describes one bracket opening. Data is a thunk so payload assembly
// is skipped entirely when the event is suppressed or unpublished.
type Event struct {
	Path          string
	Name          string
	Category      Category
	HighFrequency bool
	Data          func() map[string]any
}

// Bracket is the token returned by Start and consumed by End. Ends must
// arrive in reverse order of starts; a token mismatch at End is a
// precondition violation.
type Bracket struct {
	id string
}

// Record is the wire form of one published bracket edge.
type Record struct {
	ID        string         `json:"id"`
	Phase     string         `json:"phase"`
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	Timestamp string         `json:"timestamp"` // RFC3339 format
	Data      map[string]any `json:"data,omitempty"`
}

type frame struct {
	id        string
	path      string
	name      string
	category  Category
	published bool
}

// Recorder maintains the event-bracket stack for a session and optionally
// publishes bracket edges to NATS. It wraps a standard slog.Logger for local
// logging; publishing is enabled only when a connection is supplied, so
// in-process use never depends on a live broker.
//
// Bracket balance is checked at frame boundaries through CheckBalanced
// rather than during element disposal: an end call may legitimately arrive
// after the element that started the bracket has been torn down within the
// same logical frame.
type Recorder struct {
	mu       sync.Mutex
	session  string
	nc       *nats.Conn
	enabled  bool
	logger   *slog.Logger
	metrics  *metric.Metrics
	limiter  *rate.Limiter
	suppress bool
	stack    []frame
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithConn supplies the NATS connection used to publish bracket edges.
// A nil connection leaves publishing disabled.
func WithConn(nc *nats.Conn) RecorderOption {
	return func(r *Recorder) {
		r.nc = nc
		r.enabled = nc != nil
	}
}

// WithLogger sets the structured logger for local records.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics wires event-volume counters.
func WithMetrics(m *metric.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithHighFrequencyLimit rate-limits publishing of high-frequency brackets.
// Suppressed publishes keep their place on the balance stack; only the
// external stream is thinned.
func WithHighFrequencyLimit(limit rate.Limit, burst int) RecorderOption {
	return func(r *Recorder) {
		r.limiter = rate.NewLimiter(limit, burst)
	}
}

// SuppressHighFrequency statically drops high-frequency brackets from the
// stream. Dropped brackets are tracked as skip markers so balance checking
// still holds.
func SuppressHighFrequency() RecorderOption {
	return func(r *Recorder) {
		r.suppress = true
	}
}

// NewRecorder creates a recorder for the named session.
func NewRecorder(session string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start opens an event bracket and returns the token its End must present.
// A nil recorder no-ops so uninstrumented paths need no guard.
func (r *Recorder) Start(ev Event) Bracket {
	if r == nil {
		return Bracket{}
	}

	f := frame{
		id:       uuid.NewString(),
		path:     ev.Path,
		name:     ev.Name,
		category: ev.Category,
	}

	skipped := ev.HighFrequency && r.suppress
	if !skipped {
		r.metrics.RecordEvent(ev.Category.String())
		f.published = r.enabled && ev.Category != CategoryOptOut
		if f.published && ev.HighFrequency && r.limiter != nil && !r.limiter.Allow() {
			f.published = false
			r.metrics.RecordEventThrottled()
		}
	}

	r.mu.Lock()
	r.stack = append(r.stack, f)
	r.mu.Unlock()

	if f.published {
		r.publish("start", f, ev.Data)
	}
	return Bracket{id: f.id}
}

// End closes the bracket identified by the token. Ends must nest like a
// stack: ending anything but the innermost open bracket is a precondition
// violation.
func (r *Recorder) End(b Bracket) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if len(r.stack) == 0 {
		r.mu.Unlock()
		return errors.WrapPrecondition(
			fmt.Errorf("%w: end with no open bracket", errors.ErrUnbalancedBracket),
			"Recorder", "End", "stack depth check")
	}
	top := r.stack[len(r.stack)-1]
	if top.id != b.id {
		r.mu.Unlock()
		return errors.WrapPrecondition(
			fmt.Errorf("%w: out-of-order end for %q", errors.ErrUnbalancedBracket, top.path),
			"Recorder", "End", "bracket identity check")
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.mu.Unlock()

	if top.published {
		r.publish("end", top, nil)
	}
	return nil
}

// Depth returns the number of currently open brackets.
func (r *Recorder) Depth() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// CheckBalanced verifies that every started bracket has ended. Callers
// invoke it at frame boundaries, after any post-disposal end calls have had
// their chance to land.
func (r *Recorder) CheckBalanced() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.stack) == 0 {
		return nil
	}
	open := make([]string, len(r.stack))
	for i, f := range r.stack {
		open[i] = f.path
	}
	return errors.WrapPrecondition(
		fmt.Errorf("%w: %d open at frame boundary: %v", errors.ErrUnbalancedBracket, len(open), open),
		"Recorder", "CheckBalanced", "frame boundary check")
}

// publish ships one bracket edge to NATS, logging failures locally without
// surfacing them to the instrumented call path.
func (r *Recorder) publish(phase string, f frame, data func() map[string]any) {
	rec := Record{
		ID:        f.id,
		Phase:     phase,
		Path:      f.path,
		Name:      f.name,
		Category:  f.category.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if data != nil {
		rec.Data = data()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("failed to marshal event record", "error", err, "path", f.path)
		return
	}

	// Re-check the connection before I/O in case it was torn down after the
	// enabled check.
	nc := r.nc
	if nc == nil {
		return
	}

	subject := fmt.Sprintf("events.%s.%s", r.session, f.path)
	if err := nc.Publish(subject, payload); err != nil {
		r.logger.Error("failed to publish event record", "error", err, "subject", subject)
		return
	}
	r.metrics.RecordEventPublished()
}
