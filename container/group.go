package container

import (
	"fmt"

	"github.com/c360/statekit/errors"
	"github.com/c360/statekit/iotype"
	"github.com/c360/statekit/naming"
)

type groupEntry[T Member] struct {
	index int
	value T
}

// Group manages an ordered, index-addressable population of dynamic
// elements. Member names are the container base name plus a monotonically
// assigned index; an index, once issued, is never reused even after the
// member at that index is disposed, so snapshot reconstruction stays
// unambiguous.
type Group[T Member] struct {
	*base[T]
	members   []groupEntry[T]
	nextIndex int
}

// NewGroup creates a group parented at node whose members declare
// elementType. When archetype generation is enabled the archetype is built
// synchronously before NewGroup returns.
func NewGroup[T Member](node *naming.Node, elementType *iotype.Type, factory Factory[T], opts ...Option[T]) (*Group[T], error) {
	b, err := newBase(node, elementType, factory, opts...)
	if err != nil {
		return nil, err
	}
	return &Group[T]{base: b}, nil
}

// Count returns the number of live members.
func (g *Group[T]) Count() int {
	return len(g.members)
}

// NextIndex returns the index the next created member will receive.
func (g *Group[T]) NextIndex() int {
	return g.nextIndex
}

// Elements returns the live members in creation order.
func (g *Group[T]) Elements() []T {
	out := make([]T, len(g.members))
	for i, entry := range g.members {
		out[i] = entry.value
	}
	return out
}

// Get returns the member at position i in creation order.
func (g *Group[T]) Get(i int) T {
	return g.members[i].value
}

// GetByIndex returns the live member carrying the given issued index.
func (g *Group[T]) GetByIndex(index int) (T, bool) {
	for _, entry := range g.members {
		if entry.index == index {
			return entry.value, true
		}
	}
	var zero T
	return zero, false
}

// IndexOf returns the issued index of a live member, or -1.
func (g *Group[T]) IndexOf(value T) int {
	for _, entry := range g.members {
		if entry.value.Node() == value.Node() {
			return entry.index
		}
	}
	return -1
}

// CreateNextElement builds a member at the next unused index and fires a
// creation notification.
func (g *Group[T]) CreateNextElement(args ...any) (T, error) {
	return g.createAt(g.nextIndex, args)
}

// CreateIndexedElement builds a member at an explicit index, used when
// applying a snapshot whose member names encode their original indices. The
// next-index counter rolls forward past any index created this way so later
// creations cannot collide.
func (g *Group[T]) CreateIndexedElement(index int, args ...any) (T, error) {
	var zero T
	if index < 0 {
		return zero, errors.WrapStructural(
			fmt.Errorf("negative member index %d", index),
			"Group", "CreateIndexedElement", "index check")
	}
	if _, exists := g.GetByIndex(index); exists {
		return zero, errors.WrapStructural(
			fmt.Errorf("%w: index %d on %s", errors.ErrIndexCollision, index, g.Path()),
			"Group", "CreateIndexedElement", "index collision check")
	}
	return g.createAt(index, args)
}

func (g *Group[T]) createAt(index int, args []any) (T, error) {
	var zero T

	node, err := g.Node().CreateChild(
		naming.MemberName(g.memberBase, index),
		naming.ChildOptions{Required: true, Supplied: true})
	if err != nil {
		return zero, errors.Wrap(err, "Group", "createAt", "member node creation")
	}

	value, err := g.buildMember(node, args)
	if err != nil {
		return zero, err
	}

	g.members = append(g.members, groupEntry[T]{index: index, value: value})
	if index >= g.nextIndex {
		g.nextIndex = index + 1
	}
	g.metrics.RecordElementCreated(g.Path())
	g.notifyCreated(value)
	return value, nil
}

// DisposeElement removes a member, disposes it, and fires a disposal
// notification, in exactly that order: listeners reacting to the
// notification observe a collection that already excludes the member.
// Disposing a member not present is a precondition violation.
func (g *Group[T]) DisposeElement(value T) error {
	pos := -1
	for i, entry := range g.members {
		if entry.value.Node() == value.Node() {
			pos = i
			break
		}
	}
	if pos < 0 {
		return errors.WrapPrecondition(
			fmt.Errorf("%w: %s", errors.ErrUnknownElement, g.Path()),
			"Group", "DisposeElement", "membership check")
	}
	return g.disposeAt(pos)
}

// DisposeElementIfPresent is DisposeElement for callers that cannot know
// whether the member is still live; an absent member is a no-op.
func (g *Group[T]) DisposeElementIfPresent(value T) error {
	for i, entry := range g.members {
		if entry.value.Node() == value.Node() {
			return g.disposeAt(i)
		}
	}
	return nil
}

func (g *Group[T]) disposeAt(pos int) error {
	entry := g.members[pos]
	g.members = append(g.members[:pos], g.members[pos+1:]...)

	if err := entry.value.Dispose(); err != nil {
		return errors.Wrap(err, "Group", "DisposeElement", "member disposal")
	}
	g.metrics.RecordElementDisposed(g.Path())
	g.notifyDisposed(entry.value)
	return nil
}

// ClearOptions controls Clear behavior. The zero value resets the index
// counter, so the next created member receives index 0 again.
type ClearOptions struct {
	// KeepIndex preserves the next-index counter across the clear.
	KeepIndex bool
}

// Clear disposes every live member front-to-back in creation order, so
// observers mirroring the collection by position get amortized-linear
// bookkeeping.
func (g *Group[T]) Clear(opts ClearOptions) error {
	for len(g.members) > 0 {
		if err := g.disposeAt(0); err != nil {
			return err
		}
	}
	if !opts.KeepIndex {
		g.nextIndex = 0
	}
	return nil
}
