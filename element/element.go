package element

import (
	"fmt"

	"github.com/c360/statekit/errors"
	"github.com/c360/statekit/eventlog"
	"github.com/c360/statekit/iotype"
	"github.com/c360/statekit/metric"
	"github.com/c360/statekit/naming"
)

// State represents the lifecycle state of an element.
type State int

const (
	// StateCreated indicates the element was constructed but not
	// initialized.
	StateCreated State = iota
	// StateInitialized indicates the element completed initialization,
	// instrumented or not.
	StateInitialized
	// StateDisposed indicates the element was torn down. Terminal.
	StateDisposed
)

// String returns a string representation of the element state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Metadata is the declared shape of an element on the API surface. The
// validator compares these structs field-by-field against a container's
// archetype and against the frozen baseline document.
type Metadata struct {
	Path          string `json:"path"`
	TypeName      string `json:"typeName"`
	State         bool   `json:"state"`
	ReadOnly      bool   `json:"readOnly"`
	Featured      bool   `json:"featured"`
	Dynamic       bool   `json:"dynamic"`
	Archetype     bool   `json:"archetype"`
	EventCategory string `json:"eventCategory"`
	HighFrequency bool   `json:"highFrequency"`
}

// Element is the instrumentation capability embedded into runtime objects.
// It owns a naming node, references a shared type contract, and drives the
// initialize-at-most-once / dispose-once lifecycle.
//
// An element without a supplied name stays uninstrumented: every
// registry-touching operation silently no-ops. This is the escape hatch
// that lets shared components be optionally instrumented without forcing
// every call site to supply a name.
type Element struct {
	node          *naming.Node
	typ           *iotype.Type
	recorder      *eventlog.Recorder
	metrics       *metric.Metrics
	state         State
	includeState  bool
	readOnly      bool
	featured      bool
	dynamic       bool
	archetype     bool
	category      eventlog.Category
	highFrequency bool
	linked        []*Element
	brackets      []eventlog.Bracket
}

// Option configures an Element at construction.
type Option func(*Element)

// WithType sets the element's type contract. Defaults to iotype.ObjectType.
func WithType(t *iotype.Type) Option {
	return func(e *Element) {
		if t != nil {
			e.typ = t
		}
	}
}

// WithRecorder wires the session's event-bracket recorder.
func WithRecorder(r *eventlog.Recorder) Option {
	return func(e *Element) {
		e.recorder = r
	}
}

// WithMetrics wires registration metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(e *Element) {
		e.metrics = m
	}
}

// ExcludeFromState removes the element from snapshot/restore.
func ExcludeFromState() Option {
	return func(e *Element) {
		e.includeState = false
	}
}

// ReadOnly marks the element as not externally settable.
func ReadOnly() Option {
	return func(e *Element) {
		e.readOnly = true
	}
}

// Featured marks the element as part of the featured API subset.
func Featured() Option {
	return func(e *Element) {
		e.featured = true
	}
}

// WithEventCategory sets the causal category recorded on event brackets.
func WithEventCategory(c eventlog.Category) Option {
	return func(e *Element) {
		e.category = c
	}
}

// HighFrequency marks the element's events as high-frequency, making them
// eligible for static suppression and publish throttling.
func HighFrequency() Option {
	return func(e *Element) {
		e.highFrequency = true
	}
}

// AsDynamicElement marks the element as created outside startup. Containers
// apply this to every member they build.
func AsDynamicElement() Option {
	return func(e *Element) {
		e.dynamic = true
	}
}

// New constructs an element bound to node. A nil node leaves the element
// uninstrumented. The element is not registered until Initialize.
func New(node *naming.Node, opts ...Option) *Element {
	e := &Element{
		node:         node,
		typ:          iotype.ObjectType,
		category:     eventlog.CategoryModel,
		includeState: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Node returns the element's naming node, satisfying naming.Registrable.
func (e *Element) Node() *naming.Node { return e.node }

// Type returns the element's type contract.
func (e *Element) Type() *iotype.Type { return e.typ }

// State returns the lifecycle state.
func (e *Element) State() State { return e.state }

// Path returns the element's full dotted path, or "" when uninstrumented.
func (e *Element) Path() string {
	if e.node == nil {
		return ""
	}
	return e.node.Path()
}

// Instrumented reports whether the element participates in the registry.
func (e *Element) Instrumented() bool {
	return e.node != nil && e.node.Instrumented()
}

// IncludeInState reports whether the element participates in snapshots.
func (e *Element) IncludeInState() bool { return e.includeState }

// IsReadOnly reports whether the element rejects external mutation.
func (e *Element) IsReadOnly() bool { return e.readOnly }

// IsFeatured reports whether the element is in the featured API subset.
func (e *Element) IsFeatured() bool { return e.featured }

// DynamicElement reports whether the element was created outside startup.
func (e *Element) DynamicElement() bool { return e.dynamic }

// IsArchetype reports whether the element exists solely to declare a
// container's element shape.
func (e *Element) IsArchetype() bool { return e.archetype }

// EventCategory returns the causal category for this element's events.
func (e *Element) EventCategory() eventlog.Category { return e.category }

// Metadata returns the element's declared API-surface shape.
func (e *Element) Metadata() Metadata {
	return Metadata{
		Path:          e.Path(),
		TypeName:      e.typ.TypeName(),
		State:         e.includeState,
		ReadOnly:      e.readOnly,
		Featured:      e.featured,
		Dynamic:       e.dynamic,
		Archetype:     e.archetype,
		EventCategory: e.category.String(),
		HighFrequency: e.highFrequency,
	}
}

// Initialize transitions the element to its initialized state and, when
// instrumented, registers it. Initializing twice is a precondition
// violation. A required-but-unsupplied name is reported through the
// registry's missing-name policy.
func (e *Element) Initialize() error {
	if e.state == StateDisposed {
		return errors.WrapPrecondition(errors.ErrAlreadyDisposed, "Element", "Initialize", "lifecycle check")
	}
	if e.state != StateCreated {
		return errors.WrapPrecondition(
			fmt.Errorf("%w: %s", errors.ErrAlreadyInitialized, e.Path()),
			"Element", "Initialize", "single initialization check")
	}
	e.state = StateInitialized

	if e.node == nil {
		return nil
	}

	if e.node.Required() && !e.node.Supplied() {
		e.metrics.RecordMissingName()
		if err := e.node.Registry().ReportMissingName(e.node.Path()); err != nil {
			return errors.Wrap(err, "Element", "Initialize", "required name check")
		}
		return nil
	}
	if !e.node.Instrumented() {
		return nil
	}

	e.node.BindOwner(e)
	e.node.Registry().RegisterElement(e)
	e.metrics.RecordRegistration(e.dynamic)
	return nil
}

// MarkAsDynamicElement flags the element as dynamic before it is announced.
// Containers call this on members between construction and Initialize; once
// the element has initialized the flag is frozen.
func (e *Element) MarkAsDynamicElement() error {
	if e.state != StateCreated {
		return errors.WrapPrecondition(
			fmt.Errorf("dynamic flag is frozen after initialization: %s", e.Path()),
			"Element", "MarkAsDynamicElement", "lifecycle check")
	}
	e.dynamic = true
	return nil
}

// MarkAsArchetype flips the element into archetype mode: archetype true,
// dynamic false, one-way. The same flags propagate to every element
// currently bound under this element's subtree, so nested containers'
// members inherit archetype-ness.
func (e *Element) MarkAsArchetype() error {
	if e.state == StateDisposed {
		return errors.WrapPrecondition(errors.ErrAlreadyDisposed, "Element", "MarkAsArchetype", "lifecycle check")
	}
	e.applyArchetype()
	if e.node == nil {
		return nil
	}
	e.node.WalkSubtree(func(n *naming.Node) {
		if el, ok := n.Owner().(*Element); ok {
			el.applyArchetype()
		}
	})
	return nil
}

func (e *Element) applyArchetype() {
	e.archetype = true
	e.dynamic = false
}

// AddLinkedElement records a symbolic, non-owning cross-reference to
// another element. It no-ops when either side is uninstrumented.
func (e *Element) AddLinkedElement(other *Element) {
	if other == nil || !e.Instrumented() || !other.Instrumented() {
		return
	}
	e.linked = append(e.linked, other)
}

// LinkedElements returns the current cross-reference records.
func (e *Element) LinkedElements() []*Element {
	out := make([]*Element, len(e.linked))
	copy(out, e.linked)
	return out
}

// RemoveLinkedElements drops every cross-reference record targeting other.
// It no-ops when no record matches.
func (e *Element) RemoveLinkedElements(other *Element) {
	if other == nil {
		return
	}
	kept := e.linked[:0]
	for _, l := range e.linked {
		if l != other {
			kept = append(kept, l)
		}
	}
	e.linked = kept
}

// StartEvent opens an event bracket scoped to this element. Uninstrumented
// elements no-op. The data thunk is evaluated only if the bracket is
// published.
func (e *Element) StartEvent(name string, data func() map[string]any) error {
	if e.state == StateDisposed {
		return errors.WrapPrecondition(errors.ErrAlreadyDisposed, "Element", "StartEvent", "lifecycle check")
	}
	if !e.Instrumented() || e.recorder == nil {
		return nil
	}

	b := e.recorder.Start(eventlog.Event{
		Path:          e.Path(),
		Name:          name,
		Category:      e.category,
		HighFrequency: e.highFrequency,
		Data:          data,
	})
	e.brackets = append(e.brackets, b)
	return nil
}

// EndEvent closes the element's innermost open bracket. It remains legal
// after Dispose: an end call may arrive after the element that started the
// bracket has been torn down within the same logical frame, so the balance
// check is deferred to the recorder's frame-boundary CheckBalanced.
func (e *Element) EndEvent() error {
	if !e.Instrumented() || e.recorder == nil {
		return nil
	}
	if len(e.brackets) == 0 {
		return errors.WrapPrecondition(
			fmt.Errorf("%w: no open bracket on %s", errors.ErrUnbalancedBracket, e.Path()),
			"Element", "EndEvent", "bracket pairing check")
	}
	b := e.brackets[len(e.brackets)-1]
	e.brackets = e.brackets[:len(e.brackets)-1]
	return e.recorder.End(b)
}

// InvokeMethod calls one of the type's declared methods on instance,
// rejecting methods not marked invokable-for-read-only on read-only
// elements.
func (e *Element) InvokeMethod(instance any, name string, args []iotype.StateObject) (iotype.StateObject, error) {
	if e.state == StateDisposed {
		return nil, errors.WrapPrecondition(errors.ErrAlreadyDisposed, "Element", "InvokeMethod", "lifecycle check")
	}
	if e.readOnly {
		method, ok := e.typ.Methods()[name]
		if !ok {
			return nil, errors.WrapStructural(
				fmt.Errorf("%w: %q not declared on %s", errors.ErrInvalidMethod, name, e.typ.TypeName()),
				"Element", "InvokeMethod", "method lookup")
		}
		if !method.InvokableForReadOnly {
			return nil, errors.WrapPrecondition(
				fmt.Errorf("method %q is not invokable on read-only element %s", name, e.Path()),
				"Element", "InvokeMethod", "read-only check")
		}
	}
	return e.typ.Invoke(instance, name, args)
}

// Dispose tears the element down: deregisters it, drops linked-element
// records, and removes its naming node. Double dispose is a precondition
// violation. Open event brackets are left for their pending EndEvent calls.
func (e *Element) Dispose() error {
	if e.state == StateDisposed {
		return errors.WrapPrecondition(
			fmt.Errorf("%w: %s", errors.ErrAlreadyDisposed, e.Path()),
			"Element", "Dispose", "single dispose check")
	}
	wasInitialized := e.state == StateInitialized
	e.state = StateDisposed
	e.linked = nil

	if e.node == nil {
		return nil
	}
	if wasInitialized && e.node.Instrumented() {
		e.node.Registry().DeregisterElement(e)
		e.metrics.RecordDeregistration(e.dynamic)
	}
	if e.node.Parent() != nil {
		if err := e.node.Dispose(); err != nil {
			return errors.Wrap(err, "Element", "Dispose", "node removal")
		}
	}
	return nil
}
