package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorStructural, "structural"},
		{ErrorContract, "contract"},
		{ErrorPrecondition, "precondition"},
		{ErrorDiagnostic, "diagnostic"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsStructural(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"name collision", ErrNameCollision, true},
		{"invalid name", ErrInvalidName, true},
		{"invalid state object", ErrInvalidStateObject, true},
		{"type mismatch", ErrTypeMismatch, true},
		{"double dispose", ErrAlreadyDisposed, false},
		{"archetype drift", ErrArchetypeDrift, false},
		{"classified structural", &ClassifiedError{Class: ErrorStructural, Err: fmt.Errorf("test")}, true},
		{"classified contract", &ClassifiedError{Class: ErrorContract, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsStructural(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsContract(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"static mutation", ErrStaticMutation, true},
		{"archetype drift", ErrArchetypeDrift, true},
		{"unknown override", ErrUnknownOverride, true},
		{"redundant override", ErrRedundantValue, true},
		{"name collision", ErrNameCollision, false},
		{"classified contract", &ClassifiedError{Class: ErrorContract, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsContract(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsPrecondition(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"double initialize", ErrAlreadyInitialized, true},
		{"double dispose", ErrAlreadyDisposed, true},
		{"capsule already populated", ErrAlreadyPopulated, true},
		{"unknown element", ErrUnknownElement, true},
		{"unbalanced bracket", ErrUnbalancedBracket, true},
		{"missing name", ErrMissingName, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsPrecondition(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsDiagnostic(t *testing.T) {
	if !IsDiagnostic(ErrMissingName) {
		t.Error("missing name should be diagnostic")
	}
	if IsDiagnostic(ErrNameCollision) {
		t.Error("name collision should not be diagnostic")
	}
	if IsDiagnostic(nil) {
		t.Error("nil should not be diagnostic")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"structural default", fmt.Errorf("something else"), ErrorStructural},
		{"name collision", ErrNameCollision, ErrorStructural},
		{"archetype drift", ErrArchetypeDrift, ErrorContract},
		{"double dispose", ErrAlreadyDisposed, ErrorPrecondition},
		{"missing name", ErrMissingName, ErrorDiagnostic},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "Node", "CreateChild", "charset check") != nil {
		t.Error("wrapping nil should return nil")
	}

	err := Wrap(ErrInvalidName, "Node", "CreateChild", "charset check")
	if err == nil {
		t.Fatal("expected non-nil error")
	}
	expected := "Node.CreateChild: charset check failed"
	if !strings.Contains(err.Error(), expected) {
		t.Errorf("error %q does not contain %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidName) {
		t.Error("wrapped error should unwrap to sentinel")
	}
}

func TestWrapClassified(t *testing.T) {
	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"structural", WrapStructural, ErrorStructural},
		{"contract", WrapContract, ErrorContract},
		{"precondition", WrapPrecondition, ErrorPrecondition},
		{"diagnostic", WrapDiagnostic, ErrorDiagnostic},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrap(nil, "C", "M", "a") != nil {
				t.Error("wrapping nil should return nil")
			}

			err := test.wrap(fmt.Errorf("boom"), "Registry", "Register", "listener fan-out")
			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatal("expected ClassifiedError")
			}
			if ce.Class != test.class {
				t.Errorf("expected class %v, got %v", test.class, ce.Class)
			}
			if ce.Component != "Registry" || ce.Operation != "Register" {
				t.Errorf("unexpected context: %+v", ce)
			}
		})
	}
}
