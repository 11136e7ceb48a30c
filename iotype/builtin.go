package iotype

import (
	"fmt"
	"math"
	"sync"
)

const objectTypeName = "ObjectIO"

// Wire sentinels for non-finite numbers, which plain JSON cannot encode.
// They round-trip exactly back to the corresponding infinite value.
const (
	PositiveInfinitySentinel = "POSITIVE_INFINITY"
	NegativeInfinitySentinel = "NEGATIVE_INFINITY"
)

// isJSONValue reports whether v is representable in a JSON value tree.
func isJSONValue(v any) bool {
	switch val := v.(type) {
	case nil, bool, string,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case []StateObject:
		for _, item := range val {
			if !isJSONValue(item) {
				return false
			}
		}
		return true
	case map[string]StateObject:
		for _, item := range val {
			if !isJSONValue(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// toFloat converts any Go numeric to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

var (
	objectRootOnce sync.Once
	objectRootType *Type
)

// objectRoot builds the root contract on first use. Supertype defaulting in
// New resolves through this accessor rather than the ObjectType variable,
// so the leaf types below can initialize without an ordering cycle.
func objectRoot() *Type {
	objectRootOnce.Do(func() {
		objectRootType = newObjectRoot()
	})
	return objectRootType
}

// ObjectType is the root of every supertype chain. It serializes any
// JSON-representable value as-is and contributes empty constructor
// arguments; reference-style application is delegated to subtypes.
var ObjectType = objectRoot()

func newObjectRoot() *Type {
	return MustNew(objectTypeName, Config{
		Validator: func(instance any) error {
			return nil
		},
		ToStateObject: func(instance any) (StateObject, error) {
			if !isJSONValue(instance) {
				return nil, fmt.Errorf("value of type %T is not JSON-representable", instance)
			}
			return instance, nil
		},
		FromStateObject: func(state StateObject) (any, error) {
			return state, nil
		},
		ApplyState: func(instance any, state StateObject) error {
			return fmt.Errorf("%s has no reference-style state application", objectTypeName)
		},
		StateToArgs: func(state StateObject) ([]StateObject, error) {
			return nil, nil
		},
		MetadataDefaults: map[string]any{
			"state":    true,
			"readOnly": false,
			"featured": false,
		},
		Documentation: "The root contract: any JSON-representable value.",
	})
}

// BooleanType is the leaf contract for booleans.
var BooleanType = MustNew("BooleanIO", Config{
	Validator: func(instance any) error {
		if _, ok := instance.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", instance)
		}
		return nil
	},
	Schema: ValueSchema(func(state StateObject) error {
		if _, ok := state.(bool); !ok {
			return fmt.Errorf("expected boolean wire value, got %T", state)
		}
		return nil
	}),
	Documentation: "A true/false value.",
})

// StringType is the leaf contract for strings.
var StringType = MustNew("StringIO", Config{
	Validator: func(instance any) error {
		if _, ok := instance.(string); !ok {
			return fmt.Errorf("expected string, got %T", instance)
		}
		return nil
	},
	FromStateObject: func(state StateObject) (any, error) {
		s, ok := state.(string)
		if !ok {
			return nil, fmt.Errorf("expected string wire value, got %T", state)
		}
		return s, nil
	},
	Schema: ValueSchema(func(state StateObject) error {
		if _, ok := state.(string); !ok {
			return fmt.Errorf("expected string wire value, got %T", state)
		}
		return nil
	}),
	Documentation: "A text value.",
})

// NumberType is the leaf contract for numbers. Positive and negative
// infinity are carried as reserved wire sentinels; NaN is rejected by the
// validator because it has no faithful wire form.
var NumberType = MustNew("NumberIO", Config{
	Validator: func(instance any) error {
		n, ok := toFloat(instance)
		if !ok {
			return fmt.Errorf("expected number, got %T", instance)
		}
		if math.IsNaN(n) {
			return fmt.Errorf("NaN is not an instrumentable number")
		}
		return nil
	},
	ToStateObject: func(instance any) (StateObject, error) {
		n, _ := toFloat(instance)
		switch {
		case math.IsInf(n, 1):
			return PositiveInfinitySentinel, nil
		case math.IsInf(n, -1):
			return NegativeInfinitySentinel, nil
		default:
			return n, nil
		}
	},
	FromStateObject: func(state StateObject) (any, error) {
		if s, ok := state.(string); ok {
			switch s {
			case PositiveInfinitySentinel:
				return math.Inf(1), nil
			case NegativeInfinitySentinel:
				return math.Inf(-1), nil
			default:
				return nil, fmt.Errorf("unexpected numeric sentinel %q", s)
			}
		}
		n, ok := toFloat(state)
		if !ok {
			return nil, fmt.Errorf("expected numeric wire value, got %T", state)
		}
		return n, nil
	},
	Schema: ValueSchema(func(state StateObject) error {
		if s, ok := state.(string); ok {
			if s == PositiveInfinitySentinel || s == NegativeInfinitySentinel {
				return nil
			}
			return fmt.Errorf("unexpected numeric sentinel %q", s)
		}
		if n, ok := toFloat(state); !ok {
			return fmt.Errorf("expected numeric wire value, got %T", state)
		} else if math.IsNaN(n) {
			return fmt.Errorf("NaN has no wire form")
		}
		return nil
	}),
	Documentation: "A finite number, or one of the reserved infinity sentinels.",
})

// NullType is the leaf contract for the null value.
var NullType = MustNew("NullIO", Config{
	Validator: func(instance any) error {
		if instance != nil {
			return fmt.Errorf("expected nil, got %T", instance)
		}
		return nil
	},
	Schema: ValueSchema(func(state StateObject) error {
		if state != nil {
			return fmt.Errorf("expected null wire value, got %T", state)
		}
		return nil
	}),
	Documentation: "The null value.",
})

// JSONType is the leaf contract for opaque JSON blobs: any value tree is
// accepted as long as it is JSON-representable.
var JSONType = MustNew("JSONIO", Config{
	Validator: func(instance any) error {
		if !isJSONValue(instance) {
			return fmt.Errorf("value of type %T is not JSON-representable", instance)
		}
		return nil
	},
	Schema: ValueSchema(func(state StateObject) error {
		if !isJSONValue(state) {
			return fmt.Errorf("wire value of type %T is not JSON-representable", state)
		}
		return nil
	}),
	Documentation: "An opaque JSON value tree.",
})
