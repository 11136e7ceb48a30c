package iotype

import (
	"fmt"
	"sync"
)

// Cache memoizes parametric type construction so that repeated requests for
// the same parameterization return the identical *Type. Reference identity
// matters downstream: containers and the validator compare types by
// pointer. Entries are immutable once inserted; the cache is append-only.
type Cache struct {
	mu    sync.Mutex
	types map[string]*Type
}

// NewCache creates an empty parametric-type cache. Sessions own their own
// cache so tests can construct isolated instances.
func NewCache() *Cache {
	return &Cache{types: make(map[string]*Type)}
}

// DefaultCache is the process-wide cache used by call sites that do not
// carry a session.
var DefaultCache = NewCache()

// intern returns the memoized type for key, building it on first request.
func (c *Cache) intern(key string, build func() *Type) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.types[key]; ok {
		return existing
	}
	t := build()
	c.types[key] = t
	return t
}

// Lookup returns the cached type with the given display name, if any.
func (c *Cache) Lookup(name string) (*Type, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.types[name]
	return t, ok
}

func requireParameter(family string, params ...*Type) {
	for _, p := range params {
		if p == nil {
			panic(fmt.Sprintf("iotype.%s: nil parameter type", family))
		}
	}
}

// ArrayOf returns the contract for an ordered list of param values. The
// wire form is a JSON array of the parameter's wire form.
func ArrayOf(c *Cache, param *Type) *Type {
	requireParameter("ArrayOf", param)
	name := fmt.Sprintf("ArrayIO<%s>", param.TypeName())
	return c.intern(name, func() *Type {
		return MustNew(name, Config{
			ParameterTypes: []*Type{param},
			Validator: func(instance any) error {
				items, ok := instance.([]any)
				if !ok {
					return fmt.Errorf("expected slice, got %T", instance)
				}
				for i, item := range items {
					if err := param.Validate(item); err != nil {
						return fmt.Errorf("element %d: %w", i, err)
					}
				}
				return nil
			},
			ToStateObject: func(instance any) (StateObject, error) {
				items := instance.([]any)
				state := make([]StateObject, len(items))
				for i, item := range items {
					itemState, err := param.ToStateObject(item)
					if err != nil {
						return nil, fmt.Errorf("element %d: %w", i, err)
					}
					state[i] = itemState
				}
				return state, nil
			},
			FromStateObject: func(state StateObject) (any, error) {
				items, ok := state.([]StateObject)
				if !ok {
					return nil, fmt.Errorf("expected array wire value, got %T", state)
				}
				out := make([]any, len(items))
				for i, itemState := range items {
					item, err := param.FromStateObject(itemState)
					if err != nil {
						return nil, fmt.Errorf("element %d: %w", i, err)
					}
					out[i] = item
				}
				return out, nil
			},
			Schema: ValueSchema(func(state StateObject) error {
				items, ok := state.([]StateObject)
				if !ok {
					return fmt.Errorf("expected array wire value, got %T", state)
				}
				for i, itemState := range items {
					if err := param.ValidateStateObject(itemState); err != nil {
						return fmt.Errorf("element %d: %w", i, err)
					}
				}
				return nil
			}),
			Documentation: fmt.Sprintf("An ordered list of %s values.", param.TypeName()),
		})
	})
}

// NullableOf returns the contract for a param value that may be absent. The
// wire form is null or the parameter's wire form.
func NullableOf(c *Cache, param *Type) *Type {
	requireParameter("NullableOf", param)
	name := fmt.Sprintf("NullableIO<%s>", param.TypeName())
	return c.intern(name, func() *Type {
		return MustNew(name, Config{
			ParameterTypes: []*Type{param},
			Validator: func(instance any) error {
				if instance == nil {
					return nil
				}
				return param.Validate(instance)
			},
			ToStateObject: func(instance any) (StateObject, error) {
				if instance == nil {
					return nil, nil
				}
				return param.ToStateObject(instance)
			},
			FromStateObject: func(state StateObject) (any, error) {
				if state == nil {
					return nil, nil
				}
				return param.FromStateObject(state)
			},
			Schema: ValueSchema(func(state StateObject) error {
				if state == nil {
					return nil
				}
				return param.ValidateStateObject(state)
			}),
			Documentation: fmt.Sprintf("A %s value, or null.", param.TypeName()),
		})
	})
}

// MapOf returns the contract for a string-keyed mapping to value's wire
// form. JSON object keys are strings, so the key contract must serialize to
// a string; MapOf panics on a key type that does not extend StringType.
func MapOf(c *Cache, key, value *Type) *Type {
	requireParameter("MapOf", key, value)
	if !key.Extends(StringType) {
		panic(fmt.Sprintf("iotype.MapOf: key type %s must extend %s", key.TypeName(), StringType.TypeName()))
	}
	name := fmt.Sprintf("MapIO<%s,%s>", key.TypeName(), value.TypeName())
	return c.intern(name, func() *Type {
		return MustNew(name, Config{
			ParameterTypes: []*Type{key, value},
			Validator: func(instance any) error {
				entries, ok := instance.(map[string]any)
				if !ok {
					return fmt.Errorf("expected string-keyed map, got %T", instance)
				}
				for k, v := range entries {
					if err := key.Validate(k); err != nil {
						return fmt.Errorf("key %q: %w", k, err)
					}
					if err := value.Validate(v); err != nil {
						return fmt.Errorf("value for %q: %w", k, err)
					}
				}
				return nil
			},
			ToStateObject: func(instance any) (StateObject, error) {
				entries := instance.(map[string]any)
				state := make(map[string]StateObject, len(entries))
				for k, v := range entries {
					valueState, err := value.ToStateObject(v)
					if err != nil {
						return nil, fmt.Errorf("value for %q: %w", k, err)
					}
					state[k] = valueState
				}
				return state, nil
			},
			FromStateObject: func(state StateObject) (any, error) {
				entries, ok := state.(map[string]StateObject)
				if !ok {
					return nil, fmt.Errorf("expected object wire value, got %T", state)
				}
				out := make(map[string]any, len(entries))
				for k, valueState := range entries {
					v, err := value.FromStateObject(valueState)
					if err != nil {
						return nil, fmt.Errorf("value for %q: %w", k, err)
					}
					out[k] = v
				}
				return out, nil
			},
			Schema: ValueSchema(func(state StateObject) error {
				entries, ok := state.(map[string]StateObject)
				if !ok {
					return fmt.Errorf("expected object wire value, got %T", state)
				}
				for k, valueState := range entries {
					if err := value.ValidateStateObject(valueState); err != nil {
						return fmt.Errorf("value for %q: %w", k, err)
					}
				}
				return nil
			}),
			Documentation: fmt.Sprintf("A mapping from %s to %s.", key.TypeName(), value.TypeName()),
		})
	})
}
