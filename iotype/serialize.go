package iotype

import (
	"fmt"

	"github.com/c360/statekit/errors"
)

// ToStateObject serializes an instance to its wire representation. The
// instance is validated first; the resulting state object is then checked
// against the declared schema, catching drift between a custom serializer
// and its declaration at the moment it happens.
func (t *Type) ToStateObject(instance any) (StateObject, error) {
	if err := t.Validate(instance); err != nil {
		return nil, errors.Wrap(err, "Type", "ToStateObject", "instance validation")
	}
	state, err := t.resolveToState(instance)
	if err != nil {
		return nil, err
	}
	if err := t.ValidateStateObject(state); err != nil {
		return nil, errors.WrapStructural(
			fmt.Errorf("serialized state of %s does not match its schema: %w", t.name, err),
			"Type", "ToStateObject", "schema drift check")
	}
	return state, nil
}

func (t *Type) resolveToState(instance any) (StateObject, error) {
	for cur := t; cur != nil; cur = cur.supertype {
		if cur.toStateObject != nil {
			return cur.toStateObject(instance)
		}
		if cur.schema.IsComposite() {
			return t.compositeToState(instance)
		}
	}
	return nil, errors.WrapStructural(
		fmt.Errorf("%w: %s has no serialization source", errors.ErrNoSerialization, t.name),
		"Type", "ToStateObject", "serializer resolution")
}

func (t *Type) compositeToState(instance any) (StateObject, error) {
	provider, ok := instance.(PropertyProvider)
	if !ok {
		return nil, errors.WrapStructural(
			fmt.Errorf("%w: %T does not expose state properties", errors.ErrInvalidInstance, instance),
			"Type", "ToStateObject", "property provider check")
	}

	serialize := func(fields []Field) (map[string]StateObject, error) {
		out := make(map[string]StateObject, len(fields))
		for _, field := range fields {
			value, ok := provider.StateProperty(field.Name)
			if !ok {
				return nil, errors.WrapStructural(
					fmt.Errorf("%w: instance of %s has no property %q", errors.ErrInvalidInstance, t.name, field.Name),
					"Type", "ToStateObject", "property lookup")
			}
			fieldState, err := field.Type.ToStateObject(value)
			if err != nil {
				return nil, errors.Wrap(err, "Type", "ToStateObject", fmt.Sprintf("field %q serialization", field.Name))
			}
			out[field.Name] = fieldState
		}
		return out, nil
	}

	state, err := serialize(t.chainPublicFields())
	if err != nil {
		return nil, err
	}
	if private := t.chainPrivateFields(); len(private) > 0 {
		privateState, err := serialize(private)
		if err != nil {
			return nil, err
		}
		state[PrivateKey] = privateState
	}
	return state, nil
}

// FromStateObject reconstructs a value from its wire representation
// (data-type style). Composite types must supply a custom function; the
// default composite behavior covers ApplyState only, because reconstruction
// needs a constructor the schema cannot express.
func (t *Type) FromStateObject(state StateObject) (any, error) {
	for cur := t; cur != nil; cur = cur.supertype {
		if cur.fromStateObject != nil {
			return cur.fromStateObject(state)
		}
		if cur.schema.IsComposite() {
			return nil, errors.WrapStructural(
				fmt.Errorf("%w: %s is a composite type without FromStateObject", errors.ErrNoSerialization, t.name),
				"Type", "FromStateObject", "deserializer resolution")
		}
	}
	return nil, errors.WrapStructural(
		fmt.Errorf("%w: %s", errors.ErrNoSerialization, t.name),
		"Type", "FromStateObject", "deserializer resolution")
}

// ApplyState applies a wire representation to an existing instance
// (reference style). The default composite behavior dispatches per field on
// the field type's declared deserialization method: ByValue reconstructs
// and assigns, ByReference recurses into the existing sub-object.
func (t *Type) ApplyState(instance any, state StateObject) error {
	if err := t.ValidateStateObject(state); err != nil {
		return errors.Wrap(err, "Type", "ApplyState", "state validation")
	}
	for cur := t; cur != nil; cur = cur.supertype {
		if cur.applyState != nil {
			return cur.applyState(instance, state)
		}
		if cur.schema.IsComposite() {
			return t.compositeApplyState(instance, state)
		}
	}
	return errors.WrapStructural(
		fmt.Errorf("%w: %s", errors.ErrNoSerialization, t.name),
		"Type", "ApplyState", "deserializer resolution")
}

func (t *Type) compositeApplyState(instance any, state StateObject) error {
	provider, ok := instance.(PropertyProvider)
	if !ok {
		return errors.WrapStructural(
			fmt.Errorf("%w: %T does not expose state properties", errors.ErrInvalidInstance, instance),
			"Type", "ApplyState", "property provider check")
	}
	stateMap, ok := state.(map[string]StateObject)
	if !ok {
		return errors.WrapStructural(
			fmt.Errorf("%w: composite state must be an object", errors.ErrInvalidStateObject),
			"Type", "ApplyState", "state shape check")
	}

	applyFields := func(fields []Field, source map[string]StateObject) error {
		for _, field := range fields {
			fieldState, present := source[field.Name]
			if !present {
				return errors.WrapStructural(
					fmt.Errorf("%w: missing field %q", errors.ErrInvalidStateObject, field.Name),
					"Type", "ApplyState", "field presence check")
			}

			switch field.Type.DefaultDeserialization() {
			case ByReference:
				sub, ok := provider.StateProperty(field.Name)
				if !ok {
					return errors.WrapStructural(
						fmt.Errorf("%w: instance has no property %q", errors.ErrInvalidInstance, field.Name),
						"Type", "ApplyState", "property lookup")
				}
				if err := field.Type.ApplyState(sub, fieldState); err != nil {
					return errors.Wrap(err, "Type", "ApplyState", fmt.Sprintf("field %q apply", field.Name))
				}
			default:
				value, err := field.Type.FromStateObject(fieldState)
				if err != nil {
					return errors.Wrap(err, "Type", "ApplyState", fmt.Sprintf("field %q reconstruction", field.Name))
				}
				if !provider.SetStateProperty(field.Name, value) {
					return errors.WrapStructural(
						fmt.Errorf("%w: property %q rejected assignment", errors.ErrInvalidInstance, field.Name),
						"Type", "ApplyState", "property assignment")
				}
			}
		}
		return nil
	}

	if err := applyFields(t.chainPublicFields(), stateMap); err != nil {
		return err
	}
	if private := t.chainPrivateFields(); len(private) > 0 {
		privateState, _ := stateMap[PrivateKey].(map[string]StateObject)
		if err := applyFields(private, privateState); err != nil {
			return err
		}
	}
	return nil
}

// StateToArgs derives constructor arguments from a wire representation, for
// dynamic containers recreating elements from a snapshot. Types without a
// custom function inherit the nearest ancestor's; the root contributes no
// arguments.
func (t *Type) StateToArgs(state StateObject) ([]StateObject, error) {
	for cur := t; cur != nil; cur = cur.supertype {
		if cur.stateToArgs != nil {
			return cur.stateToArgs(state)
		}
	}
	return nil, errors.WrapStructural(
		fmt.Errorf("%w: %s", errors.ErrNoSerialization, t.name),
		"Type", "StateToArgs", "resolution")
}

// chainPublicFields returns the public composite fields declared along the
// supertype chain, root-first, subtype declarations shadowing same-named
// ancestors.
func (t *Type) chainPublicFields() []Field {
	return t.collectFields(func(s *Schema) []Field { return s.Fields() })
}

// chainPrivateFields returns the private composite fields declared along
// the supertype chain.
func (t *Type) chainPrivateFields() []Field {
	return t.collectFields(func(s *Schema) []Field { return s.PrivateFields() })
}

func (t *Type) collectFields(selector func(*Schema) []Field) []Field {
	var ordered []Field
	index := make(map[string]int)
	var walk func(*Type)
	walk = func(cur *Type) {
		if cur == nil {
			return
		}
		walk(cur.supertype)
		if cur.schema.IsComposite() {
			for _, f := range selector(cur.schema) {
				if i, seen := index[f.Name]; seen {
					ordered[i] = f
					continue
				}
				index[f.Name] = len(ordered)
				ordered = append(ordered, f)
			}
		}
	}
	walk(t)
	return ordered
}

// hasCompositeSchema reports whether any level of the chain declares a
// composite schema.
func (t *Type) hasCompositeSchema() bool {
	for cur := t; cur != nil; cur = cur.supertype {
		if cur.schema.IsComposite() {
			return true
		}
	}
	return false
}

// ValidateStateObject structurally checks a wire value against the type's
// declared schema. For composite types every declared key must be present
// and recursively valid. Only at the root of the type hierarchy are
// undeclared keys rejected, so subtypes can add fields without repeating
// ancestor schemas while garbage payloads still fail at the entry point.
func (t *Type) ValidateStateObject(state StateObject) error {
	if t.hasCompositeSchema() {
		stateMap, ok := state.(map[string]StateObject)
		if !ok {
			return errors.WrapStructural(
				fmt.Errorf("%w: composite state for %s must be an object, got %T", errors.ErrInvalidStateObject, t.name, state),
				"Type", "ValidateStateObject", "state shape check")
		}

		declared := make(map[string]bool)
		checkFields := func(fields []Field, source map[string]StateObject, where string) error {
			for _, field := range fields {
				fieldState, present := source[field.Name]
				if !present {
					return errors.WrapStructural(
						fmt.Errorf("%w: %s state missing %sfield %q", errors.ErrInvalidStateObject, t.name, where, field.Name),
						"Type", "ValidateStateObject", "field presence check")
				}
				if err := field.Type.ValidateStateObject(fieldState); err != nil {
					return errors.Wrap(err, "Type", "ValidateStateObject", fmt.Sprintf("field %q", field.Name))
				}
			}
			return nil
		}

		public := t.chainPublicFields()
		for _, field := range public {
			declared[field.Name] = true
		}
		if err := checkFields(public, stateMap, ""); err != nil {
			return err
		}

		if private := t.chainPrivateFields(); len(private) > 0 {
			declared[PrivateKey] = true
			privateState, ok := stateMap[PrivateKey].(map[string]StateObject)
			if !ok {
				return errors.WrapStructural(
					fmt.Errorf("%w: %s state missing private bucket", errors.ErrInvalidStateObject, t.name),
					"Type", "ValidateStateObject", "private bucket check")
			}
			if err := checkFields(private, privateState, "private "); err != nil {
				return err
			}
			privateDeclared := make(map[string]bool, len(private))
			for _, field := range private {
				privateDeclared[field.Name] = true
			}
			for key := range privateState {
				if !privateDeclared[key] {
					return errors.WrapStructural(
						fmt.Errorf("%w: %s state has undeclared private field %q", errors.ErrInvalidStateObject, t.name, key),
						"Type", "ValidateStateObject", "closed-world check")
				}
			}
		}

		// Closed-world sweep: reject keys no level of the chain declares.
		for key := range stateMap {
			if !declared[key] {
				return errors.WrapStructural(
					fmt.Errorf("%w: %s state has undeclared field %q", errors.ErrInvalidStateObject, t.name, key),
					"Type", "ValidateStateObject", "closed-world check")
			}
		}
		return nil
	}

	for cur := t; cur != nil; cur = cur.supertype {
		if cur.schema != nil && !cur.schema.IsComposite() {
			if err := cur.schema.validateValue(state); err != nil {
				return errors.WrapStructural(
					fmt.Errorf("%w: %s: %v", errors.ErrInvalidStateObject, t.name, err),
					"Type", "ValidateStateObject", "value check")
			}
			return nil
		}
	}
	return nil
}

// IsStateObjectValid reports whether a wire value satisfies the declared
// schema.
func (t *Type) IsStateObjectValid(state StateObject) bool {
	return t.ValidateStateObject(state) == nil
}
