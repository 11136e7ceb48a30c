package iotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayOf_Memoized(t *testing.T) {
	cache := NewCache()

	first := ArrayOf(cache, NumberType)
	second := ArrayOf(cache, NumberType)
	assert.Same(t, first, second)
	assert.Equal(t, "ArrayIO<NumberIO>", first.TypeName())

	other := ArrayOf(cache, StringType)
	assert.NotSame(t, first, other)

	// Separate caches intern independently.
	assert.NotSame(t, first, ArrayOf(NewCache(), NumberType))
}

func TestArrayOf_RoundTrip(t *testing.T) {
	cache := NewCache()
	numbers := ArrayOf(cache, NumberType)

	state, err := numbers.ToStateObject([]any{1.0, 2.0, 3.0})
	require.NoError(t, err)
	assert.Equal(t, []StateObject{1.0, 2.0, 3.0}, state)

	back, err := numbers.FromStateObject(state)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, back)

	_, err = numbers.ToStateObject([]any{1.0, "two"})
	assert.Error(t, err)
	assert.False(t, numbers.IsStateObjectValid([]StateObject{1.0, true}))
}

func TestNullableOf(t *testing.T) {
	cache := NewCache()
	maybe := NullableOf(cache, NumberType)
	assert.Same(t, maybe, NullableOf(cache, NumberType))
	assert.Equal(t, "NullableIO<NumberIO>", maybe.TypeName())

	state, err := maybe.ToStateObject(nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = maybe.ToStateObject(4.0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, state)

	assert.True(t, maybe.IsStateObjectValid(nil))
	assert.True(t, maybe.IsStateObjectValid(2.0))
	assert.False(t, maybe.IsStateObjectValid(true))
}

func TestMapOf(t *testing.T) {
	cache := NewCache()
	scores := MapOf(cache, StringType, NumberType)
	assert.Same(t, scores, MapOf(cache, StringType, NumberType))
	assert.Equal(t, "MapIO<StringIO,NumberIO>", scores.TypeName())

	state, err := scores.ToStateObject(map[string]any{"a": 1.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]StateObject{"a": 1.0}, state)

	back, err := scores.FromStateObject(state)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, back)

	assert.False(t, scores.IsStateObjectValid(map[string]StateObject{"a": "one"}))
}

func TestMapOf_RejectsNonStringKeyType(t *testing.T) {
	cache := NewCache()
	assert.Panics(t, func() {
		MapOf(cache, NumberType, NumberType)
	})
}

func TestParametric_NilParameterPanics(t *testing.T) {
	cache := NewCache()
	assert.Panics(t, func() { ArrayOf(cache, nil) })
	assert.Panics(t, func() { NullableOf(cache, nil) })
	assert.Panics(t, func() { MapOf(cache, StringType, nil) })
}

func TestCacheLookup(t *testing.T) {
	cache := NewCache()

	_, ok := cache.Lookup("ArrayIO<NumberIO>")
	assert.False(t, ok)

	built := ArrayOf(cache, NumberType)
	found, ok := cache.Lookup("ArrayIO<NumberIO>")
	require.True(t, ok)
	assert.Same(t, built, found)
}

func TestParametricTypes_DeclareParameters(t *testing.T) {
	cache := NewCache()
	scores := MapOf(cache, StringType, NumberType)
	require.Len(t, scores.ParameterTypes(), 2)
	assert.Same(t, StringType, scores.ParameterTypes()[0])
	assert.Same(t, NumberType, scores.ParameterTypes()[1])
}
