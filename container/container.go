package container

import (
	"fmt"
	"log/slog"

	"github.com/c360/statekit/element"
	"github.com/c360/statekit/errors"
	"github.com/c360/statekit/iotype"
	"github.com/c360/statekit/metric"
	"github.com/c360/statekit/naming"
)

// Member is the contract for container-managed values. Any type embedding
// *element.Element satisfies it.
type Member interface {
	Node() *naming.Node
	Type() *iotype.Type
	State() element.State
	Metadata() element.Metadata
	DynamicElement() bool
	MarkAsDynamicElement() error
	MarkAsArchetype() error
	Initialize() error
	Dispose() error
}

// Factory builds one member from its naming node and creation arguments.
// The factory constructs but must not initialize; the container drives
// dynamic-flag tagging and initialization so members are announced with
// their final metadata.
type Factory[T Member] func(node *naming.Node, args []any) (T, error)

// Option configures a container at construction.
type Option[T Member] func(*base[T])

// WithDefaultArgs supplies the argument thunk used to build the archetype.
func WithDefaultArgs[T Member](defaults func() []any) Option[T] {
	return func(b *base[T]) {
		b.defaultArgs = defaults
	}
}

// WithArchetype enables API-shape generation: the container builds its
// archetype at construction.
func WithArchetype[T Member]() Option[T] {
	return func(b *base[T]) {
		b.buildArchetype = true
	}
}

// WithMemberName overrides the base segment used for member names, which
// defaults to the container's own node name.
func WithMemberName[T Member](name string) Option[T] {
	return func(b *base[T]) {
		b.memberBase = name
	}
}

// WithMetrics wires per-container churn counters.
func WithMetrics[T Member](m *metric.Metrics) Option[T] {
	return func(b *base[T]) {
		b.metrics = m
	}
}

// WithLogger sets the structured logger for container events.
func WithLogger[T Member](logger *slog.Logger) Option[T] {
	return func(b *base[T]) {
		b.logger = logger
	}
}

// WithElementOptions forwards options to the container's own element.
func WithElementOptions[T Member](opts ...element.Option) Option[T] {
	return func(b *base[T]) {
		b.elementOpts = append(b.elementOpts, opts...)
	}
}

// base carries the behavior shared by Group and Capsule: the container's
// own instrumentation, archetype construction, member building, and the
// two-phase deferred notification queue.
type base[T Member] struct {
	*element.Element
	elementType    *iotype.Type
	factory        Factory[T]
	defaultArgs    func() []any
	buildArchetype bool
	memberBase     string
	archetype      T
	hasArchetype   bool

	deferred        bool
	pendingCreated  []T
	pendingDisposed []T

	createdListeners  []func(T)
	disposedListeners []func(T)

	metrics     *metric.Metrics
	logger      *slog.Logger
	elementOpts []element.Option
}

func newBase[T Member](node *naming.Node, elementType *iotype.Type, factory Factory[T], opts ...Option[T]) (*base[T], error) {
	if node == nil {
		return nil, errors.WrapStructural(
			fmt.Errorf("container requires a naming node"),
			"Container", "New", "node check")
	}
	if elementType == nil {
		return nil, errors.WrapStructural(
			fmt.Errorf("container requires a declared element type"),
			"Container", "New", "element type check")
	}
	if factory == nil {
		return nil, errors.WrapStructural(
			fmt.Errorf("container requires a member factory"),
			"Container", "New", "factory check")
	}

	b := &base[T]{
		elementType: elementType,
		factory:     factory,
		memberBase:  node.Name(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.Element = element.New(node, b.elementOpts...)
	if err := b.Element.Initialize(); err != nil {
		return nil, errors.Wrap(err, "Container", "New", "container initialization")
	}

	if b.buildArchetype {
		if err := b.constructArchetype(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// constructArchetype builds the single API-shape instance under the
// reserved archetype child, tagged non-dynamic and never counted among live
// members.
func (b *base[T]) constructArchetype() error {
	node, err := b.Node().CreateArchetypeChild()
	if err != nil {
		return errors.Wrap(err, "Container", "constructArchetype", "archetype node creation")
	}

	var args []any
	if b.defaultArgs != nil {
		args = b.defaultArgs()
	}
	value, err := b.factory(node, args)
	if err != nil {
		return errors.Wrap(err, "Container", "constructArchetype", "archetype factory call")
	}
	if err := b.checkMember(value, node); err != nil {
		return err
	}
	if err := value.MarkAsArchetype(); err != nil {
		return errors.Wrap(err, "Container", "constructArchetype", "archetype tagging")
	}
	if err := value.Initialize(); err != nil {
		return errors.Wrap(err, "Container", "constructArchetype", "archetype initialization")
	}

	b.archetype = value
	b.hasArchetype = true
	b.logger.Debug("container archetype built", "path", node.Path())
	return nil
}

// buildMember runs the factory for one live member and announces it with
// the dynamic flag set.
func (b *base[T]) buildMember(node *naming.Node, args []any) (T, error) {
	var zero T

	value, err := b.factory(node, args)
	if err != nil {
		return zero, errors.Wrap(err, "Container", "buildMember", "factory call")
	}
	if err := b.checkMember(value, node); err != nil {
		return zero, err
	}
	if err := value.MarkAsDynamicElement(); err != nil {
		return zero, errors.Wrap(err, "Container", "buildMember", "dynamic tagging")
	}
	if err := value.Initialize(); err != nil {
		return zero, errors.Wrap(err, "Container", "buildMember", "member initialization")
	}
	return value, nil
}

// checkMember enforces the schema contract on a factory result: the member
// must own the node it was built for and its declared type must
// reference-match the container's element type parameter.
func (b *base[T]) checkMember(value T, node *naming.Node) error {
	if value.Node() != node {
		return errors.WrapStructural(
			fmt.Errorf("factory result does not own node %q", node.Path()),
			"Container", "checkMember", "node ownership check")
	}
	if value.Type() != b.elementType {
		return errors.WrapStructural(
			fmt.Errorf("%w: factory declared %s, container declares %s",
				errors.ErrTypeMismatch, value.Type().TypeName(), b.elementType.TypeName()),
			"Container", "checkMember", "element type identity check")
	}
	return nil
}

// Archetype returns the API-shape instance, if one was built.
func (b *base[T]) Archetype() (T, bool) {
	return b.archetype, b.hasArchetype
}

// ElementType returns the container's declared member type parameter.
func (b *base[T]) ElementType() *iotype.Type {
	return b.elementType
}

// AddCreatedListener subscribes to member creation notifications.
func (b *base[T]) AddCreatedListener(fn func(T)) {
	if fn != nil {
		b.createdListeners = append(b.createdListeners, fn)
	}
}

// AddDisposedListener subscribes to member disposal notifications.
func (b *base[T]) AddDisposedListener(fn func(T)) {
	if fn != nil {
		b.disposedListeners = append(b.disposedListeners, fn)
	}
}

// NotificationsDeferred reports whether a batch is open.
func (b *base[T]) NotificationsDeferred() bool {
	return b.deferred
}

// BeginBatch defers creation and disposal notifications until CommitBatch,
// used while bulk-applying a snapshot so transiently-inconsistent states do
// not reach listeners.
func (b *base[T]) BeginBatch() error {
	if b.deferred {
		return errors.WrapPrecondition(
			fmt.Errorf("batch already open on %s", b.Path()),
			"Container", "BeginBatch", "batch state check")
	}
	b.deferred = true
	return nil
}

// CommitBatch flushes every queued notification: all creations first, then
// all disposals, each member exactly once, in arrival order within its
// category.
func (b *base[T]) CommitBatch() error {
	if !b.deferred {
		return errors.WrapPrecondition(
			fmt.Errorf("no batch open on %s", b.Path()),
			"Container", "CommitBatch", "batch state check")
	}

	created := b.pendingCreated
	disposed := b.pendingDisposed
	b.pendingCreated = nil
	b.pendingDisposed = nil
	b.deferred = false

	for _, value := range created {
		b.fireCreated(value)
	}
	for _, value := range disposed {
		b.fireDisposed(value)
	}
	return nil
}

func (b *base[T]) notifyCreated(value T) {
	if b.deferred {
		b.pendingCreated = append(b.pendingCreated, value)
		return
	}
	b.fireCreated(value)
}

func (b *base[T]) notifyDisposed(value T) {
	if b.deferred {
		b.pendingDisposed = append(b.pendingDisposed, value)
		return
	}
	b.fireDisposed(value)
}

func (b *base[T]) fireCreated(value T) {
	for _, fn := range b.createdListeners {
		fn(value)
	}
}

func (b *base[T]) fireDisposed(value T) {
	for _, fn := range b.disposedListeners {
		fn(value)
	}
}
