package naming

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/c360/statekit/errors"
)

// Registrable is the registry's view of an instrumented element. Elements
// expose their naming node; listeners that need richer metadata type-assert
// to their own interfaces.
type Registrable interface {
	Node() *Node
}

// Listener observes registration and deregistration events. Delivery is
// synchronous on the calling stack once the registry has launched.
type Listener interface {
	ElementRegistered(Registrable)
	ElementDeregistered(Registrable)
}

// MissingNamePolicy selects how a missing required name is reported.
type MissingNamePolicy int

const (
	// PolicyError raises a diagnostic error for a missing required name.
	PolicyError MissingNamePolicy = iota
	// PolicyCollect records missing names for later enumeration without
	// failing, used by audit tooling.
	PolicyCollect
)

// Registry owns a naming tree and fans registration events out to
// listeners. Before Launch is called registrations accumulate in a FIFO
// buffer; Launch is a one-time, one-way transition that flushes the buffer
// in arrival order and switches to synchronous delivery.
type Registry struct {
	mu            sync.RWMutex
	root          *Node
	allowList     []string
	launched      bool
	buffer        []Registrable
	listeners     []Listener
	missingPolicy MissingNamePolicy
	missingNames  []string
	logger        *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTopLevelAllowList restricts which segment names may be created
// directly under the root. An empty list permits any valid segment.
func WithTopLevelAllowList(names ...string) RegistryOption {
	return func(r *Registry) {
		r.allowList = append(r.allowList, names...)
	}
}

// WithMissingNamePolicy sets how missing required names are reported.
func WithMissingNamePolicy(policy MissingNamePolicy) RegistryOption {
	return func(r *Registry) {
		r.missingPolicy = policy
	}
}

// WithLogger sets the structured logger used for registry events.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry whose root node carries rootName.
func NewRegistry(rootName string, opts ...RegistryOption) (*Registry, error) {
	if err := ValidateName(rootName); err != nil {
		return nil, errors.Wrap(err, "Registry", "NewRegistry", "root name validation")
	}

	r := &Registry{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.root = &Node{
		name:     rootName,
		children: make(map[string]*Node),
		required: true,
		supplied: true,
		registry: r,
	}
	return r, nil
}

// Root returns the registry's root node.
func (r *Registry) Root() *Node {
	return r.root
}

// Launched reports whether the one-way launch transition has happened.
func (r *Registry) Launched() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.launched
}

// AddListener subscribes a listener to registration events. Listeners added
// before Launch see the buffered registrations when the buffer flushes.
func (r *Registry) AddListener(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// RemoveListener unsubscribes a previously added listener.
func (r *Registry) RemoveListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.listeners {
		if existing == l {
			r.listeners = slices.Delete(r.listeners, i, i+1)
			return
		}
	}
}

// RegisterElement announces an instrumented element. Uninstrumented
// elements are silently ignored. Before launch the element is buffered;
// after launch listeners are notified synchronously.
func (r *Registry) RegisterElement(obj Registrable) {
	if obj == nil || obj.Node() == nil || !obj.Node().Instrumented() {
		return
	}

	r.mu.Lock()
	if !r.launched {
		r.buffer = append(r.buffer, obj)
		r.mu.Unlock()
		return
	}
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l.ElementRegistered(obj)
	}
}

// DeregisterElement withdraws an instrumented element. Before launch the
// element is simply removed from the pending buffer; after launch listeners
// are notified synchronously.
func (r *Registry) DeregisterElement(obj Registrable) {
	if obj == nil || obj.Node() == nil || !obj.Node().Instrumented() {
		return
	}

	r.mu.Lock()
	if !r.launched {
		for i, pending := range r.buffer {
			if pending == obj {
				r.buffer = slices.Delete(r.buffer, i, i+1)
				break
			}
		}
		r.mu.Unlock()
		return
	}
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l.ElementDeregistered(obj)
	}
}

// Launch flushes the registration buffer in FIFO order and switches the
// registry to synchronous delivery. Calling Launch twice is an error.
func (r *Registry) Launch() error {
	r.mu.Lock()
	if r.launched {
		r.mu.Unlock()
		return errors.WrapPrecondition(errors.ErrAlreadyLaunched, "Registry", "Launch", "single launch check")
	}
	r.launched = true
	pending := r.buffer
	r.buffer = nil
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	r.logger.Debug("naming registry launched", "buffered", len(pending))

	for _, obj := range pending {
		for _, l := range listeners {
			l.ElementRegistered(obj)
		}
	}
	return nil
}

// ReportMissingName handles a required-but-unsupplied name according to the
// registry policy: PolicyError returns a diagnostic error, PolicyCollect
// records the path for MissingNames and returns nil.
func (r *Registry) ReportMissingName(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.missingPolicy == PolicyCollect {
		r.missingNames = append(r.missingNames, path)
		r.logger.Warn("required name not supplied", "path", path)
		return nil
	}
	return errors.WrapDiagnostic(
		fmt.Errorf("%w: %s", errors.ErrMissingName, path),
		"Registry", "ReportMissingName", "required name check")
}

// MissingNames returns the paths collected under PolicyCollect, in report
// order.
func (r *Registry) MissingNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.missingNames)
}

func (r *Registry) checkTopLevel(name string) error {
	if len(r.allowList) == 0 {
		return nil
	}
	if slices.Contains(r.allowList, name) {
		return nil
	}
	return errors.WrapStructural(
		fmt.Errorf("%w: %q", errors.ErrNotPermitted, name),
		"Registry", "checkTopLevel", "allow-list check")
}
