package iotype

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/statekit/errors"
)

// fakeParticle implements PropertyProvider for composite-schema tests.
type fakeParticle struct {
	x, y   float64
	charge float64
}

func (p *fakeParticle) StateProperty(name string) (any, bool) {
	switch name {
	case "x":
		return p.x, true
	case "y":
		return p.y, true
	case "charge":
		return p.charge, true
	}
	return nil, false
}

func (p *fakeParticle) SetStateProperty(name string, value any) bool {
	n, ok := value.(float64)
	if !ok {
		return false
	}
	switch name {
	case "x":
		p.x = n
	case "y":
		p.y = n
	case "charge":
		p.charge = n
	default:
		return false
	}
	return true
}

func newParticleType(t *testing.T) *Type {
	t.Helper()
	typ, err := New("ParticleIO", Config{
		Validator: func(instance any) error {
			if _, ok := instance.(*fakeParticle); !ok {
				return fmt.Errorf("expected *fakeParticle, got %T", instance)
			}
			return nil
		},
		Schema: CompositeSchema(
			Field{Name: "x", Type: NumberType},
			Field{Name: "y", Type: NumberType},
		).WithPrivate(Field{Name: "charge", Type: NumberType}),
	})
	require.NoError(t, err)
	return typ
}

func TestNew_TypeNameRules(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"ParticleIO", true},
		{"ArrayIO<NumberIO>", true},
		{"Particle", false},
		{"", false},
		{"Particle.IO", false},
		{"Particle_IO", false},
		{"ArrayIO<NumberIO", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.name, Config{})
			if test.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidTypeName)
			}
		})
	}
}

func TestNew_CoherenceChecks(t *testing.T) {
	t.Run("composite field without type", func(t *testing.T) {
		_, err := New("BrokenIO", Config{
			Schema: CompositeSchema(Field{Name: "x"}),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidSchema)
	})

	t.Run("duplicate composite field", func(t *testing.T) {
		_, err := New("BrokenIO", Config{
			Schema: CompositeSchema(
				Field{Name: "x", Type: NumberType},
				Field{Name: "x", Type: StringType},
			),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidSchema)
	})

	t.Run("reserved field name", func(t *testing.T) {
		_, err := New("BrokenIO", Config{
			Schema: CompositeSchema(Field{Name: PrivateKey, Type: NumberType}),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidSchema)
	})

	t.Run("apply state without serialization source", func(t *testing.T) {
		_, err := New("BrokenIO", Config{
			ApplyState: func(any, StateObject) error { return nil },
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoSerialization)
	})

	t.Run("method without return type", func(t *testing.T) {
		_, err := New("BrokenIO", Config{
			Methods: map[string]Method{
				"reset": {},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidMethod)
	})

	t.Run("redundant metadata default", func(t *testing.T) {
		_, err := New("BrokenIO", Config{
			MetadataDefaults: map[string]any{"state": true},
		})
		require.Error(t, err)
		assert.True(t, errors.IsStructural(err))
	})
}

func TestSupertypeChain(t *testing.T) {
	particle := newParticleType(t)

	assert.Same(t, ObjectType, particle.Supertype())
	assert.True(t, particle.Extends(ObjectType))
	assert.True(t, particle.Extends(particle))
	assert.False(t, ObjectType.Extends(particle))
	assert.Nil(t, ObjectType.Supertype())
}

func TestCompositeRoundTrip(t *testing.T) {
	particle := newParticleType(t)
	original := &fakeParticle{x: 1.5, y: -2, charge: 0.25}

	state, err := particle.ToStateObject(original)
	require.NoError(t, err)

	stateMap, ok := state.(map[string]StateObject)
	require.True(t, ok)
	assert.Equal(t, 1.5, stateMap["x"])
	assert.Equal(t, -2.0, stateMap["y"])
	privateMap, ok := stateMap[PrivateKey].(map[string]StateObject)
	require.True(t, ok)
	assert.Equal(t, 0.25, privateMap["charge"])

	restored := &fakeParticle{}
	require.NoError(t, particle.ApplyState(restored, state))
	assert.Equal(t, original, restored)

	// Reference-style round trip reproduces the original state object.
	again, err := particle.ToStateObject(restored)
	require.NoError(t, err)
	assert.Equal(t, state, again)
}

func TestValidateStateObject_ClosedWorld(t *testing.T) {
	schema, err := New("PairIO", Config{
		Validator: func(any) error { return nil },
		Schema: CompositeSchema(
			Field{Name: "a", Type: NumberType},
			Field{Name: "b", Type: StringType},
		),
	})
	require.NoError(t, err)

	valid := map[string]StateObject{"a": 1.0, "b": "hi"}
	assert.True(t, schema.IsStateObjectValid(valid))

	extra := map[string]StateObject{"a": 1.0, "b": "hi", "c": true}
	err = schema.ValidateStateObject(extra)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidStateObject)
	assert.Contains(t, err.Error(), `"c"`)

	missing := map[string]StateObject{"a": 1.0}
	assert.False(t, schema.IsStateObjectValid(missing))

	wrongShape := "not an object"
	assert.False(t, schema.IsStateObjectValid(wrongShape))
}

func TestSubtypeAddsFields(t *testing.T) {
	particle := newParticleType(t)
	charged, err := New("ChargedParticleIO", Config{
		Supertype: particle,
		Schema:    CompositeSchema(Field{Name: "spin", Type: NumberType}),
	})
	require.NoError(t, err)

	// Subtype state requires both its own and inherited fields.
	state := map[string]StateObject{
		"x": 1.0, "y": 2.0, "spin": 0.5,
		PrivateKey: map[string]StateObject{"charge": -1.0},
	}
	assert.True(t, charged.IsStateObjectValid(state))

	// Dropping an inherited field fails.
	delete(state, "x")
	assert.False(t, charged.IsStateObjectValid(state))

	// The supertype remains unaffected by subtype additions.
	superState := map[string]StateObject{
		"x": 1.0, "y": 2.0,
		PrivateKey: map[string]StateObject{"charge": -1.0},
	}
	assert.True(t, particle.IsStateObjectValid(superState))
}

func TestSerializationDriftCheck(t *testing.T) {
	// A custom serializer that disagrees with the declared schema is
	// caught at serialization time.
	drifting, err := New("DriftIO", Config{
		Validator: func(any) error { return nil },
		Schema: CompositeSchema(
			Field{Name: "a", Type: NumberType},
		),
		ToStateObject: func(any) (StateObject, error) {
			return map[string]StateObject{"wrong": 1.0}, nil
		},
	})
	require.NoError(t, err)

	_, err = drifting.ToStateObject(struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidStateObject)
}

func TestMetadataDefaultsMerge(t *testing.T) {
	particle := newParticleType(t)

	sub, err := New("FrozenParticleIO", Config{
		Supertype:        particle,
		MetadataDefaults: map[string]any{"readOnly": true},
	})
	require.NoError(t, err)

	merged := sub.MetadataDefaults()
	assert.Equal(t, true, merged["readOnly"])
	assert.Equal(t, true, merged["state"])
	assert.Equal(t, false, merged["featured"])
}

func TestMethods_MergeAndInvoke(t *testing.T) {
	base, err := New("CounterIO", Config{
		Validator: func(any) error { return nil },
		Methods: map[string]Method{
			"reset": {
				ReturnType:    NullType,
				Documentation: "Clears the counter.",
				Implementation: func(instance any, args []StateObject) (StateObject, error) {
					return nil, nil
				},
			},
		},
	})
	require.NoError(t, err)

	sub, err := New("StepCounterIO", Config{
		Supertype: base,
		Methods: map[string]Method{
			"increment": {
				ParameterTypes: []*Type{NumberType},
				ReturnType:     NumberType,
				Implementation: func(instance any, args []StateObject) (StateObject, error) {
					n, _ := args[0].(float64)
					return n + 1, nil
				},
			},
		},
	})
	require.NoError(t, err)

	methods := sub.Methods()
	assert.Len(t, methods, 2)
	assert.Contains(t, methods, "reset")
	assert.Contains(t, methods, "increment")

	result, err := sub.Invoke(nil, "increment", []StateObject{41.0})
	require.NoError(t, err)
	assert.Equal(t, 42.0, result)

	_, err = sub.Invoke(nil, "increment", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidMethod)

	_, err = sub.Invoke(nil, "unknown", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidMethod)
}

// stepValue exercises the Stateful trait.
type stepValue struct {
	count float64
}

func (s *stepValue) ToStateObject() (StateObject, error) {
	return s.count, nil
}

func (s *stepValue) ApplyState(state StateObject) error {
	n, ok := state.(float64)
	if !ok {
		return fmt.Errorf("expected number, got %T", state)
	}
	s.count = n
	return nil
}

func TestFromStateful(t *testing.T) {
	typ, err := FromStateful[*stepValue]("StepIO", StatefulConfig[*stepValue]{
		Schema: ValueSchema(func(state StateObject) error {
			if _, ok := state.(float64); !ok {
				return fmt.Errorf("expected number, got %T", state)
			}
			return nil
		}),
		FromState: func(state StateObject) (*stepValue, error) {
			n, ok := state.(float64)
			if !ok {
				return nil, fmt.Errorf("expected number, got %T", state)
			}
			return &stepValue{count: n}, nil
		},
	})
	require.NoError(t, err)

	state, err := typ.ToStateObject(&stepValue{count: 7})
	require.NoError(t, err)
	assert.Equal(t, 7.0, state)

	restored, err := typ.FromStateObject(state)
	require.NoError(t, err)
	assert.Equal(t, &stepValue{count: 7}, restored)

	target := &stepValue{}
	require.NoError(t, typ.ApplyState(target, 3.0))
	assert.Equal(t, 3.0, target.count)

	err = typ.Validate("not a step value")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInstance)
}
