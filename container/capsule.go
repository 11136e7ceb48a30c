package container

import (
	"fmt"

	"github.com/c360/statekit/errors"
	"github.com/c360/statekit/iotype"
	"github.com/c360/statekit/naming"
)

// Capsule manages at most one dynamic element. Create on a populated
// capsule is a precondition violation: callers replace the member by
// clearing first, never by silently overwriting.
type Capsule[T Member] struct {
	*base[T]
	member    T
	populated bool
}

// NewCapsule creates a capsule parented at node whose member declares
// elementType.
func NewCapsule[T Member](node *naming.Node, elementType *iotype.Type, factory Factory[T], opts ...Option[T]) (*Capsule[T], error) {
	b, err := newBase(node, elementType, factory, opts...)
	if err != nil {
		return nil, err
	}
	return &Capsule[T]{base: b}, nil
}

// Populated reports whether the capsule currently holds a member.
func (c *Capsule[T]) Populated() bool {
	return c.populated
}

// Element returns the current member, if any.
func (c *Capsule[T]) Element() (T, bool) {
	return c.member, c.populated
}

// Create builds the capsule's member and fires a creation notification.
func (c *Capsule[T]) Create(args ...any) (T, error) {
	var zero T
	if c.populated {
		return zero, errors.WrapPrecondition(
			fmt.Errorf("%w: %s", errors.ErrAlreadyPopulated, c.Path()),
			"Capsule", "Create", "population check")
	}

	node, err := c.Node().CreateChild(c.memberBase, naming.ChildOptions{Required: true, Supplied: true})
	if err != nil {
		return zero, errors.Wrap(err, "Capsule", "Create", "member node creation")
	}

	value, err := c.buildMember(node, args)
	if err != nil {
		return zero, err
	}

	c.member = value
	c.populated = true
	c.metrics.RecordElementCreated(c.Path())
	c.notifyCreated(value)
	return value, nil
}

// GetElement returns the current member, creating it on first use.
func (c *Capsule[T]) GetElement(args ...any) (T, error) {
	if c.populated {
		return c.member, nil
	}
	return c.Create(args...)
}

// Clear disposes the current member, if any, and fires a disposal
// notification after the capsule is already empty.
func (c *Capsule[T]) Clear() error {
	if !c.populated {
		return nil
	}
	value := c.member
	var zero T
	c.member = zero
	c.populated = false

	if err := value.Dispose(); err != nil {
		return errors.Wrap(err, "Capsule", "Clear", "member disposal")
	}
	c.metrics.RecordElementDisposed(c.Path())
	c.notifyDisposed(value)
	return nil
}
