package iotype

import (
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/c360/statekit/errors"
)

// TypeNameSuffix is the mandatory suffix on every type display name.
const TypeNameSuffix = "IO"

// DeserializationMethod selects how a field's serialized state reaches a
// live instance during composite ApplyState.
type DeserializationMethod int

const (
	// ByValue reconstructs the field value with FromStateObject and
	// assigns it (data-type style).
	ByValue DeserializationMethod = iota
	// ByReference applies state in place on the existing sub-object with
	// ApplyState (reference style).
	ByReference
)

// Method declares one entry of a type's RPC-like surface: ordered parameter
// types, a return type, documentation, and whether the method may be
// invoked on read-only elements. Implementation is optional; a declaration
// without one is schema-only.
type Method struct {
	ParameterTypes       []*Type
	ReturnType           *Type
	Documentation        string
	InvokableForReadOnly bool
	Implementation       func(instance any, args []StateObject) (StateObject, error)
}

// PropertyProvider is the explicit accessor contract used by default
// composite serialization. Instances expose named state properties instead
// of being introspected at runtime.
type PropertyProvider interface {
	StateProperty(name string) (any, bool)
	SetStateProperty(name string, value any) bool
}

// Config declares a Type. Zero-value fields inherit from the supertype
// chain; see New for the coherence rules.
type Config struct {
	// Supertype is the immediate ancestor contract. Nil means ObjectType,
	// except for the root itself.
	Supertype *Type
	// Validator is the predicate describing legal instances. Nil inherits
	// the nearest ancestor's validator.
	Validator func(instance any) error
	// Schema is the wire-shape declaration, value or composite.
	Schema *Schema
	// Serialization functions. Nil entries resolve through the supertype
	// chain, with composite schemas contributing default behavior.
	ToStateObject   func(instance any) (StateObject, error)
	FromStateObject func(state StateObject) (any, error)
	ApplyState      func(instance any, state StateObject) error
	StateToArgs     func(state StateObject) ([]StateObject, error)
	// ParameterTypes is the ordered parameter list for parametric types.
	ParameterTypes []*Type
	// Methods is the declared RPC surface.
	Methods map[string]Method
	// MetadataDefaults are metadata values contributed at this level;
	// redundantly re-declaring an inherited value is rejected.
	MetadataDefaults map[string]any
	// DefaultDeserialization selects the composite ApplyState strategy
	// for fields of this type.
	DefaultDeserialization DeserializationMethod
	// Documentation is the human-readable contract description.
	Documentation string
}

// Type describes the wire contract for a class of runtime objects. Types
// are immutable after construction and live for the process lifetime;
// parametric families are memoized so repeated parameterizations return the
// identical instance.
type Type struct {
	name            string
	supertype       *Type
	validator       func(any) error
	schema          *Schema
	toStateObject   func(any) (StateObject, error)
	fromStateObject func(StateObject) (any, error)
	applyState      func(any, StateObject) error
	stateToArgs     func(StateObject) ([]StateObject, error)
	parameterTypes  []*Type
	methods         map[string]Method
	metadata        map[string]any
	deserialization DeserializationMethod
	documentation   string
}

// validateTypeName checks the display-name contract: the base name (before
// any parametric bracket) ends in the IO suffix and contains no path
// separator characters.
func validateTypeName(name string) error {
	if name == "" {
		return errors.WrapStructural(errors.ErrInvalidTypeName, "Type", "validateTypeName", "empty name check")
	}
	base := name
	if i := strings.IndexByte(name, '<'); i >= 0 {
		base = name[:i]
		if !strings.HasSuffix(name, ">") {
			return errors.WrapStructural(
				fmt.Errorf("%w: unterminated parameter list in %q", errors.ErrInvalidTypeName, name),
				"Type", "validateTypeName", "parameter bracket check")
		}
	}
	if !strings.HasSuffix(base, TypeNameSuffix) {
		return errors.WrapStructural(
			fmt.Errorf("%w: %q does not end in %q", errors.ErrInvalidTypeName, name, TypeNameSuffix),
			"Type", "validateTypeName", "suffix check")
	}
	if strings.ContainsAny(base, ". _") {
		return errors.WrapStructural(
			fmt.Errorf("%w: %q contains separator characters", errors.ErrInvalidTypeName, name),
			"Type", "validateTypeName", "separator check")
	}
	return nil
}

// New constructs a Type and checks config coherence:
//   - the name satisfies the display-name contract;
//   - the schema's own declaration is coherent;
//   - the root type (nil supertype, only ObjectType) defines all four
//     serialization functions;
//   - FromStateObject or ApplyState without a matching ToStateObject and
//     without a composite schema fails fast rather than at first use;
//   - declared methods carry non-nil parameter and return types;
//   - metadata defaults must differ from the inherited value.
func New(name string, cfg Config) (*Type, error) {
	if err := validateTypeName(name); err != nil {
		return nil, err
	}
	if err := cfg.Schema.checkCoherence(); err != nil {
		return nil, errors.Wrap(err, "Type", "New", "schema coherence check")
	}

	supertype := cfg.Supertype
	if supertype == nil && name != objectTypeName {
		supertype = objectRoot()
	}

	if supertype == nil {
		if cfg.ToStateObject == nil || cfg.FromStateObject == nil ||
			cfg.ApplyState == nil || cfg.StateToArgs == nil {
			return nil, errors.WrapStructural(
				fmt.Errorf("%w: root type must define all serialization functions", errors.ErrNoSerialization),
				"Type", "New", "root serialization check")
		}
	}

	// Reference-style deserialization without a matching serialization
	// source fails at construction, not at first use.
	if cfg.ApplyState != nil && cfg.ToStateObject == nil && !cfg.Schema.IsComposite() {
		return nil, errors.WrapStructural(
			fmt.Errorf("%w: %s declares ApplyState without a serialization source", errors.ErrNoSerialization, name),
			"Type", "New", "serialization pairing check")
	}

	for methodName, m := range cfg.Methods {
		if methodName == "" || m.ReturnType == nil {
			return nil, errors.WrapStructural(
				fmt.Errorf("%w: method %q on %s", errors.ErrInvalidMethod, methodName, name),
				"Type", "New", "method declaration check")
		}
		for _, p := range m.ParameterTypes {
			if p == nil {
				return nil, errors.WrapStructural(
					fmt.Errorf("%w: method %q on %s has nil parameter type", errors.ErrInvalidMethod, methodName, name),
					"Type", "New", "method parameter check")
			}
		}
	}

	if supertype != nil && len(cfg.MetadataDefaults) > 0 {
		inherited := supertype.MetadataDefaults()
		for key, value := range cfg.MetadataDefaults {
			if existing, ok := inherited[key]; ok && reflect.DeepEqual(existing, value) {
				return nil, errors.WrapStructural(
					fmt.Errorf("metadata default %q on %s repeats the inherited value", key, name),
					"Type", "New", "redundant default check")
			}
		}
	}

	for _, p := range cfg.ParameterTypes {
		if p == nil {
			return nil, errors.WrapStructural(
				fmt.Errorf("nil parameter type on %s", name),
				"Type", "New", "parameter type check")
		}
	}

	return &Type{
		name:            name,
		supertype:       supertype,
		validator:       cfg.Validator,
		schema:          cfg.Schema,
		toStateObject:   cfg.ToStateObject,
		fromStateObject: cfg.FromStateObject,
		applyState:      cfg.ApplyState,
		stateToArgs:     cfg.StateToArgs,
		parameterTypes:  cfg.ParameterTypes,
		methods:         cfg.Methods,
		metadata:        cfg.MetadataDefaults,
		deserialization: cfg.DefaultDeserialization,
		documentation:   cfg.Documentation,
	}, nil
}

// MustNew is New for package-initialization call sites; it panics on a
// coherence failure.
func MustNew(name string, cfg Config) *Type {
	t, err := New(name, cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// TypeName returns the globally unique display name.
func (t *Type) TypeName() string { return t.name }

// Supertype returns the immediate ancestor contract, nil for the root.
func (t *Type) Supertype() *Type { return t.supertype }

// Schema returns the type's own state schema, which may be nil.
func (t *Type) Schema() *Schema { return t.schema }

// ParameterTypes returns the ordered parameter list, empty for non-generic
// types.
func (t *Type) ParameterTypes() []*Type { return t.parameterTypes }

// Documentation returns the declared contract description.
func (t *Type) Documentation() string { return t.documentation }

// DefaultDeserialization returns the composite ApplyState strategy for
// fields of this type.
func (t *Type) DefaultDeserialization() DeserializationMethod { return t.deserialization }

// Extends reports whether other appears in this type's supertype chain
// (a type extends itself).
func (t *Type) Extends(other *Type) bool {
	for cur := t; cur != nil; cur = cur.supertype {
		if cur == other {
			return true
		}
	}
	return false
}

// Methods returns the effective declared-method surface: the deep merge of
// every ancestor's declarations, root-first, so subtypes may shadow.
func (t *Type) Methods() map[string]Method {
	out := make(map[string]Method)
	t.mergeMethods(out)
	return out
}

func (t *Type) mergeMethods(into map[string]Method) {
	if t.supertype != nil {
		t.supertype.mergeMethods(into)
	}
	maps.Copy(into, t.methods)
}

// MetadataDefaults returns the effective metadata defaults: the deep merge
// of every ancestor's declarations, root-first.
func (t *Type) MetadataDefaults() map[string]any {
	out := make(map[string]any)
	t.mergeMetadata(out)
	return out
}

func (t *Type) mergeMetadata(into map[string]any) {
	if t.supertype != nil {
		t.supertype.mergeMetadata(into)
	}
	maps.Copy(into, t.metadata)
}

// Validate checks an instance against the nearest declared validator in the
// supertype chain.
func (t *Type) Validate(instance any) error {
	for cur := t; cur != nil; cur = cur.supertype {
		if cur.validator != nil {
			if err := cur.validator(instance); err != nil {
				return errors.WrapStructural(
					fmt.Errorf("%w: %s: %v", errors.ErrInvalidInstance, t.name, err),
					"Type", "Validate", "instance check")
			}
			return nil
		}
	}
	return nil
}

// Invoke calls a declared method on an instance, checking argument arity
// against the declaration. Methods without an implementation are
// schema-only and cannot be invoked.
func (t *Type) Invoke(instance any, name string, args []StateObject) (StateObject, error) {
	method, ok := t.Methods()[name]
	if !ok {
		return nil, errors.WrapStructural(
			fmt.Errorf("%w: %q not declared on %s", errors.ErrInvalidMethod, name, t.name),
			"Type", "Invoke", "method lookup")
	}
	if len(args) != len(method.ParameterTypes) {
		return nil, errors.WrapStructural(
			fmt.Errorf("%w: %q expects %d arguments, got %d",
				errors.ErrInvalidMethod, name, len(method.ParameterTypes), len(args)),
			"Type", "Invoke", "arity check")
	}
	if method.Implementation == nil {
		return nil, errors.WrapStructural(
			fmt.Errorf("%w: %q on %s is declaration-only", errors.ErrInvalidMethod, name, t.name),
			"Type", "Invoke", "implementation check")
	}
	return method.Implementation(instance, args)
}
