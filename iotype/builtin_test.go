package iotype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberType_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		wire  StateObject
	}{
		{"finite", 5, 5.0},
		{"negative", -2.5, -2.5},
		{"zero", 0, 0.0},
		{"positive infinity", math.Inf(1), PositiveInfinitySentinel},
		{"negative infinity", math.Inf(-1), NegativeInfinitySentinel},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state, err := NumberType.ToStateObject(test.value)
			require.NoError(t, err)
			assert.Equal(t, test.wire, state)

			back, err := NumberType.FromStateObject(state)
			require.NoError(t, err)
			assert.Equal(t, test.value, back)
		})
	}
}

func TestNumberType_RejectsNaN(t *testing.T) {
	_, err := NumberType.ToStateObject(math.NaN())
	assert.Error(t, err)
	assert.False(t, NumberType.IsStateObjectValid(math.NaN()))
}

func TestNumberType_WireChecks(t *testing.T) {
	assert.True(t, NumberType.IsStateObjectValid(3.0))
	assert.True(t, NumberType.IsStateObjectValid(PositiveInfinitySentinel))
	assert.True(t, NumberType.IsStateObjectValid(NegativeInfinitySentinel))
	assert.False(t, NumberType.IsStateObjectValid("INFINITY"))
	assert.False(t, NumberType.IsStateObjectValid(true))
}

func TestNumberType_AcceptsIntegers(t *testing.T) {
	state, err := NumberType.ToStateObject(7)
	require.NoError(t, err)
	assert.Equal(t, 7.0, state)
}

func TestStringType(t *testing.T) {
	state, err := StringType.ToStateObject("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", state)

	back, err := StringType.FromStateObject(state)
	require.NoError(t, err)
	assert.Equal(t, "hello", back)

	_, err = StringType.ToStateObject(7)
	assert.Error(t, err)
	_, err = StringType.FromStateObject(7.0)
	assert.Error(t, err)
}

func TestBooleanType(t *testing.T) {
	state, err := BooleanType.ToStateObject(true)
	require.NoError(t, err)
	assert.Equal(t, true, state)

	assert.True(t, BooleanType.IsStateObjectValid(false))
	assert.False(t, BooleanType.IsStateObjectValid(0.0))
	assert.Error(t, BooleanType.Validate("yes"))
}

func TestNullType(t *testing.T) {
	state, err := NullType.ToStateObject(nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	assert.True(t, NullType.IsStateObjectValid(nil))
	assert.False(t, NullType.IsStateObjectValid(0.0))
	assert.Error(t, NullType.Validate("something"))
}

func TestObjectType_SerializesJSONValues(t *testing.T) {
	value := map[string]StateObject{
		"nested": []StateObject{1.0, "two", true, nil},
	}
	state, err := ObjectType.ToStateObject(value)
	require.NoError(t, err)
	assert.Equal(t, value, state)

	_, err = ObjectType.ToStateObject(make(chan int))
	assert.Error(t, err)
}

func TestObjectType_HasNoReferenceStyleApply(t *testing.T) {
	err := ObjectType.ApplyState(struct{}{}, 1.0)
	assert.Error(t, err)
}

func TestJSONType(t *testing.T) {
	assert.NoError(t, JSONType.Validate(map[string]StateObject{"k": 1.0}))
	assert.Error(t, JSONType.Validate(func() {}))
	assert.True(t, JSONType.IsStateObjectValid([]StateObject{"a", nil}))
}

func TestBuiltinsExtendObjectType(t *testing.T) {
	for _, typ := range []*Type{BooleanType, StringType, NumberType, NullType, JSONType} {
		assert.True(t, typ.Extends(ObjectType), typ.TypeName())
	}
}

// The root contract is built exactly once: the ObjectType variable, the
// builtins' supertypes, and supertype defaulting in New all resolve to the
// identical instance.
func TestObjectTypeIsSharedRoot(t *testing.T) {
	assert.Same(t, ObjectType, objectRoot())
	for _, typ := range []*Type{BooleanType, StringType, NumberType, NullType, JSONType} {
		assert.Same(t, ObjectType, typ.Supertype(), typ.TypeName())
	}

	defaulted, err := New("DefaultedIO", Config{})
	require.NoError(t, err)
	assert.Same(t, ObjectType, defaulted.Supertype())
}
