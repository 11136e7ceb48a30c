package iotype

import (
	"fmt"

	"github.com/c360/statekit/errors"
)

// StateObject is a JSON-compatible value tree: objects, arrays, strings,
// numbers, booleans and null. Every serialized state exchanged with
// external tooling is a StateObject.
type StateObject = any

// PrivateKey is the reserved state-object key under which a composite
// schema's private fields are nested on the wire.
const PrivateKey = "_private"

// Field binds a state-object key to the type describing its value.
type Field struct {
	Name string
	Type *Type
}

// Schema describes the shape of a type's serialized state. A schema is
// either a value form (a single opaque wire validator, used by leaf types)
// or a composite form (an ordered mapping from field name to component
// type, with an optional private bucket for fields excluded from the
// public API surface).
type Schema struct {
	check   func(StateObject) error
	fields  []Field
	private []Field
}

// ValueSchema creates a leaf schema validating the whole wire value with
// one predicate.
func ValueSchema(check func(StateObject) error) *Schema {
	return &Schema{check: check}
}

// CompositeSchema creates a structured schema from an ordered field list.
func CompositeSchema(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

// WithPrivate returns a copy of a composite schema carrying additional
// private fields. Private fields are serialized and validated but not part
// of the public API surface.
func (s *Schema) WithPrivate(fields ...Field) *Schema {
	return &Schema{check: s.check, fields: s.fields, private: append(append([]Field{}, s.private...), fields...)}
}

// IsComposite reports whether the schema is the structured aggregate form.
func (s *Schema) IsComposite() bool {
	return s != nil && s.check == nil
}

// Fields returns the public fields of a composite schema in declaration
// order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// PrivateFields returns the private fields of a composite schema.
func (s *Schema) PrivateFields() []Field {
	return s.private
}

// allFields returns public then private fields.
func (s *Schema) allFields() []Field {
	if len(s.private) == 0 {
		return s.fields
	}
	out := make([]Field, 0, len(s.fields)+len(s.private))
	out = append(out, s.fields...)
	out = append(out, s.private...)
	return out
}

// checkCoherence validates the schema's own declaration: every composite
// field must carry a non-nil type and field names must be unique.
func (s *Schema) checkCoherence() error {
	if s == nil {
		return nil
	}
	if !s.IsComposite() {
		if s.check == nil {
			return errors.WrapStructural(errors.ErrInvalidSchema, "Schema", "checkCoherence", "value predicate check")
		}
		return nil
	}
	seen := make(map[string]bool)
	for _, f := range s.allFields() {
		if f.Name == PrivateKey {
			return errors.WrapStructural(
				fmt.Errorf("%w: field name %q is reserved", errors.ErrInvalidSchema, PrivateKey),
				"Schema", "checkCoherence", "reserved field check")
		}
		if f.Name == "" || f.Type == nil {
			return errors.WrapStructural(
				fmt.Errorf("%w: field %q has no type", errors.ErrInvalidSchema, f.Name),
				"Schema", "checkCoherence", "field type check")
		}
		if seen[f.Name] {
			return errors.WrapStructural(
				fmt.Errorf("%w: duplicate field %q", errors.ErrInvalidSchema, f.Name),
				"Schema", "checkCoherence", "field uniqueness check")
		}
		seen[f.Name] = true
	}
	return nil
}

// validateValue applies a value schema's predicate to a wire value.
func (s *Schema) validateValue(state StateObject) error {
	if s.check == nil {
		return nil
	}
	return s.check(state)
}
