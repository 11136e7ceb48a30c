package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360/statekit/errors"
)

const (
	// Separator joins path segments into a full element path.
	Separator = "."
	// GroupSeparator joins a container base name with a member index
	// (e.g. "particles_3").
	GroupSeparator = "_"
	// ArchetypeName is the reserved child segment under which dynamic
	// containers register their archetype.
	ArchetypeName = "archetype"
)

// Segment names are identifiers with an optional trailing member index.
var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*(_[0-9]+)?$`)

// ValidateName checks a single path segment against the identifier charset.
// Segments start with a letter, continue with letters and digits, and may
// carry a single numeric member suffix separated by GroupSeparator.
func ValidateName(name string) error {
	if name == "" {
		return errors.WrapStructural(errors.ErrInvalidName, "Node", "ValidateName", "empty segment check")
	}
	if strings.Contains(name, Separator) {
		return errors.WrapStructural(
			fmt.Errorf("%w: %q contains separator", errors.ErrInvalidName, name),
			"Node", "ValidateName", "separator check")
	}
	if !namePattern.MatchString(name) {
		return errors.WrapStructural(
			fmt.Errorf("%w: %q", errors.ErrInvalidName, name),
			"Node", "ValidateName", "charset check")
	}
	return nil
}

// ChildOptions control how a child node participates in instrumentation.
type ChildOptions struct {
	// Required marks the name as mandatory: the owning element must end
	// up instrumented or the session reports a missing-name diagnostic.
	Required bool
	// Supplied records that a call site actually provided this name.
	// A node is instrumented only when its name was supplied.
	Supplied bool
}

// Node is a single entry in the naming tree. A node owns its child map and
// has at most one parent; the full dotted path is derived by walking to the
// root. Nodes are created through CreateChild and removed through Dispose.
type Node struct {
	name     string
	parent   *Node
	children map[string]*Node
	required bool
	supplied bool
	registry *Registry
	owner    any
}

// Name returns the node's local path segment.
func (n *Node) Name() string { return n.name }

// Parent returns the owning node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Required reports whether this name must eventually be supplied.
func (n *Node) Required() bool { return n.required }

// Supplied reports whether a call site explicitly provided this name.
func (n *Node) Supplied() bool { return n.supplied }

// Registry returns the registry this node's tree belongs to.
func (n *Node) Registry() *Registry { return n.registry }

// Instrumented reports whether an element owning this node participates in
// the registry. Unsupplied nodes silently no-op all registry operations.
func (n *Node) Instrumented() bool { return n.supplied }

// Path returns the full dotted path from the root to this node. It is a
// pure function of tree shape.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.name
	}
	return n.parent.Path() + Separator + n.name
}

// HasAncestor reports whether walking parent pointers from this node
// reaches candidate.
func (n *Node) HasAncestor(candidate *Node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// CreateChild returns the child node for name, creating it when absent.
// Re-requesting an existing child is idempotent provided the flags match;
// a flag mismatch is a structural error. The reserved archetype segment
// must be created through CreateArchetypeChild.
func (n *Node) CreateChild(name string, opts ChildOptions) (*Node, error) {
	if name == ArchetypeName {
		return nil, errors.WrapStructural(
			fmt.Errorf("%w: %q", errors.ErrReservedName, name),
			"Node", "CreateChild", "reserved segment check")
	}
	return n.createChild(name, opts)
}

// CreateArchetypeChild creates the reserved archetype child under this
// node. Dynamic containers use it to declare their element shape; ordinary
// call sites cannot claim the segment.
func (n *Node) CreateArchetypeChild() (*Node, error) {
	return n.createChild(ArchetypeName, ChildOptions{Required: true, Supplied: true})
}

// MemberName derives the indexed segment for a container member
// (base + GroupSeparator + index).
func MemberName(base string, index int) string {
	return fmt.Sprintf("%s%s%d", base, GroupSeparator, index)
}

func (n *Node) createChild(name string, opts ChildOptions) (*Node, error) {
	if name != ArchetypeName {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}

	if existing, ok := n.children[name]; ok {
		if existing.required != opts.Required || existing.supplied != opts.Supplied {
			return nil, errors.WrapStructural(
				fmt.Errorf("%w: %q under %q", errors.ErrNameCollision, name, n.Path()),
				"Node", "CreateChild", "flag consistency check")
		}
		return existing, nil
	}

	if n.parent == nil && n.registry != nil {
		if err := n.registry.checkTopLevel(name); err != nil {
			return nil, err
		}
	}

	child := &Node{
		name:     name,
		parent:   n,
		children: make(map[string]*Node),
		required: opts.Required,
		supplied: opts.Supplied,
		registry: n.registry,
	}
	n.children[name] = child
	return child, nil
}

// BindOwner associates the element owning this node. The owner is stored
// opaquely so the naming tree carries no element dependency; flag
// propagation over subtrees type-asserts on retrieval.
func (n *Node) BindOwner(owner any) {
	n.owner = owner
}

// Owner returns the element bound to this node, or nil.
func (n *Node) Owner() any {
	return n.owner
}

// WalkSubtree visits this node and every descendant, parents before
// children.
func (n *Node) WalkSubtree(visit func(*Node)) {
	visit(n)
	for _, child := range n.children {
		child.WalkSubtree(visit)
	}
}

// Child returns the child with the given segment name, or nil.
func (n *Node) Child(name string) *Node {
	return n.children[name]
}

// Dispose removes this node from its parent's child map. The owning
// element calls this during its own teardown; the root cannot be disposed.
func (n *Node) Dispose() error {
	if n.parent == nil {
		return errors.WrapPrecondition(
			fmt.Errorf("root node cannot be disposed"),
			"Node", "Dispose", "root check")
	}
	delete(n.parent.children, n.name)
	n.parent = nil
	n.owner = nil
	return nil
}
