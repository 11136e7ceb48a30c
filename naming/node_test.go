package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/statekit/errors"
)

func newTestRegistry(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()
	r, err := NewRegistry("sim", opts...)
	require.NoError(t, err)
	return r
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"model", true},
		{"myGroup", true},
		{"particles_3", true},
		{"a1b2", true},
		{"", false},
		{"3particles", false},
		{"has.dot", false},
		{"has-dash", false},
		{"has space", false},
		{"trailing_", false},
		{"double__1", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateName(test.name)
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.True(t, errors.IsStructural(err))
			}
		})
	}
}

func TestCreateChild_PathDerivation(t *testing.T) {
	r := newTestRegistry(t)

	model, err := r.Root().CreateChild("model", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)

	voltage, err := model.CreateChild("voltage", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)

	assert.Equal(t, "sim", r.Root().Path())
	assert.Equal(t, "sim.model", model.Path())
	assert.Equal(t, "sim.model.voltage", voltage.Path())
	assert.Equal(t, model, voltage.Parent())
}

func TestCreateChild_Idempotent(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.Root().CreateChild("model", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)

	second, err := r.Root().CreateChild("model", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)

	// Same flags return the identical node.
	assert.Same(t, first, second)

	// Mismatched flags are a structural error.
	_, err = r.Root().CreateChild("model", ChildOptions{Required: false, Supplied: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNameCollision)
	assert.True(t, errors.IsStructural(err))
}

func TestCreateChild_ReservedSegment(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Root().CreateChild(ArchetypeName, ChildOptions{Supplied: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrReservedName)

	arch, err := r.Root().CreateArchetypeChild()
	require.NoError(t, err)
	assert.Equal(t, "sim.archetype", arch.Path())
}

func TestTopLevelAllowList(t *testing.T) {
	r := newTestRegistry(t, WithTopLevelAllowList("general", "model", "view"))

	_, err := r.Root().CreateChild("model", ChildOptions{Required: true, Supplied: true})
	assert.NoError(t, err)

	_, err = r.Root().CreateChild("rogue", ChildOptions{Required: true, Supplied: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotPermitted)

	// The allow list only guards the top of the tree.
	model := r.Root().Child("model")
	require.NotNil(t, model)
	_, err = model.CreateChild("rogue", ChildOptions{Required: true, Supplied: true})
	assert.NoError(t, err)
}

func TestHasAncestor(t *testing.T) {
	r := newTestRegistry(t)

	model, err := r.Root().CreateChild("model", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)
	leaf, err := model.CreateChild("leaf", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)

	assert.True(t, leaf.HasAncestor(model))
	assert.True(t, leaf.HasAncestor(r.Root()))
	assert.False(t, model.HasAncestor(leaf))
	assert.False(t, model.HasAncestor(model))
}

func TestNodeDispose(t *testing.T) {
	r := newTestRegistry(t)

	model, err := r.Root().CreateChild("model", ChildOptions{Required: true, Supplied: true})
	require.NoError(t, err)

	require.NoError(t, model.Dispose())
	assert.Nil(t, r.Root().Child("model"))

	// The name becomes available again after dispose.
	again, err := r.Root().CreateChild("model", ChildOptions{Required: false, Supplied: true})
	require.NoError(t, err)
	assert.NotSame(t, model, again)

	err = r.Root().Dispose()
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "particles_0", MemberName("particles", 0))
	assert.Equal(t, "particles_17", MemberName("particles", 17))
	assert.NoError(t, ValidateName(MemberName("particles", 17)))
}
