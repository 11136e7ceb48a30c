package iotype

import (
	"fmt"

	"github.com/c360/statekit/errors"
)

// Stateful is the compile-time contract for core values that carry their
// own serialization. Implementing it replaces any runtime inspection of a
// type's methods: a value either satisfies the interface or the call site
// does not compile.
type Stateful interface {
	ToStateObject() (StateObject, error)
	ApplyState(state StateObject) error
}

// StatefulConfig declares a Type derived from a Stateful implementation.
type StatefulConfig[T Stateful] struct {
	// Supertype defaults to ObjectType.
	Supertype *Type
	// Schema describes the wire shape produced by T.ToStateObject.
	Schema *Schema
	// FromState reconstructs a T from its wire form (data-type style).
	// Nil leaves the type reference-style only.
	FromState func(state StateObject) (T, error)
	// StateToArgs derives constructor arguments for dynamic recreation.
	StateToArgs func(state StateObject) ([]StateObject, error)
	// MetadataDefaults and Documentation pass through to the Type.
	MetadataDefaults map[string]any
	Documentation    string
}

// FromStateful derives a Type from a core type's own Stateful
// implementation, avoiding a hand-written serialization bundle for simple
// wrapped values. The validator accepts exactly values of type T.
func FromStateful[T Stateful](name string, cfg StatefulConfig[T]) (*Type, error) {
	typeCfg := Config{
		Supertype: cfg.Supertype,
		Schema:    cfg.Schema,
		Validator: func(instance any) error {
			if _, ok := instance.(T); !ok {
				return fmt.Errorf("expected %T, got %T", *new(T), instance)
			}
			return nil
		},
		ToStateObject: func(instance any) (StateObject, error) {
			s, ok := instance.(T)
			if !ok {
				return nil, errors.WrapStructural(
					fmt.Errorf("%w: expected %T, got %T", errors.ErrInvalidInstance, *new(T), instance),
					"Type", "ToStateObject", "stateful instance check")
			}
			return s.ToStateObject()
		},
		ApplyState: func(instance any, state StateObject) error {
			s, ok := instance.(T)
			if !ok {
				return errors.WrapStructural(
					fmt.Errorf("%w: expected %T, got %T", errors.ErrInvalidInstance, *new(T), instance),
					"Type", "ApplyState", "stateful instance check")
			}
			return s.ApplyState(state)
		},
		StateToArgs:      cfg.StateToArgs,
		MetadataDefaults: cfg.MetadataDefaults,
		Documentation:    cfg.Documentation,
	}
	if cfg.FromState != nil {
		fromState := cfg.FromState
		typeCfg.FromStateObject = func(state StateObject) (any, error) {
			return fromState(state)
		}
	}
	return New(name, typeCfg)
}

// MustFromStateful is FromStateful for package-initialization call sites;
// it panics on a coherence failure.
func MustFromStateful[T Stateful](name string, cfg StatefulConfig[T]) *Type {
	t, err := FromStateful(name, cfg)
	if err != nil {
		panic(err)
	}
	return t
}
