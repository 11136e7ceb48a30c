// Package errors provides standardized error handling patterns for statekit
// components. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping and classification across
// the instrumentation core.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes.
// The core is a correctness/contract layer, not a resilience layer: no class
// is retryable, and all classes except Diagnostic indicate a caller bug.
type ErrorClass int

const (
	// ErrorStructural represents schema or naming-tree consistency
	// violations (colliding names, malformed state objects, parametric
	// type misuse).
	ErrorStructural ErrorClass = iota
	// ErrorContract represents API-surface violations detected by the
	// validator (post-startup static registration, archetype drift,
	// stale overrides).
	ErrorContract
	// ErrorPrecondition represents caller bugs on individual operations
	// (double dispose, double initialize, unbalanced event brackets).
	ErrorPrecondition
	// ErrorDiagnostic represents soft failures that a session may choose
	// to collect instead of raising (missing required name).
	ErrorDiagnostic
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorStructural:
		return "structural"
	case ErrorContract:
		return "contract"
	case ErrorPrecondition:
		return "precondition"
	case ErrorDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Naming tree errors
	ErrNameCollision   = errors.New("name already exists with different flags")
	ErrInvalidName     = errors.New("invalid name segment")
	ErrReservedName    = errors.New("name segment is reserved")
	ErrNotPermitted    = errors.New("top-level name not in allow list")
	ErrMissingName     = errors.New("required name not supplied")
	ErrAlreadyLaunched = errors.New("registry already launched")

	// Type system errors
	ErrInvalidTypeName    = errors.New("invalid type name")
	ErrDuplicateTypeName  = errors.New("type name already registered")
	ErrInvalidStateObject = errors.New("state object does not match schema")
	ErrInvalidInstance    = errors.New("instance does not satisfy type validator")
	ErrNoSerialization    = errors.New("type declares state but cannot serialize")
	ErrInvalidSchema      = errors.New("invalid state schema")
	ErrInvalidMethod      = errors.New("invalid method declaration")

	// Element lifecycle errors
	ErrAlreadyInitialized = errors.New("element already initialized")
	ErrAlreadyDisposed    = errors.New("element already disposed")
	ErrNotInstrumented    = errors.New("element is not instrumented")
	ErrUnbalancedBracket  = errors.New("event bracket does not balance")

	// Container errors
	ErrAlreadyPopulated = errors.New("capsule already holds an element")
	ErrUnknownElement   = errors.New("element not present in container")
	ErrTypeMismatch     = errors.New("element type does not match container parameter type")
	ErrIndexCollision   = errors.New("element index already in use")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Validator errors
	ErrStaticMutation  = errors.New("static element mutated after startup")
	ErrArchetypeDrift  = errors.New("dynamic element metadata differs from archetype")
	ErrUnknownOverride = errors.New("override has no matching baseline entry")
	ErrRedundantValue  = errors.New("override equals baseline value")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsStructural checks if an error is a structural/schema violation
func IsStructural(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorStructural
	}

	return errors.Is(err, ErrNameCollision) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrReservedName) ||
		errors.Is(err, ErrNotPermitted) ||
		errors.Is(err, ErrInvalidStateObject) ||
		errors.Is(err, ErrInvalidInstance) ||
		errors.Is(err, ErrInvalidSchema) ||
		errors.Is(err, ErrTypeMismatch)
}

// IsContract checks if an error is an API-contract violation
func IsContract(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorContract
	}

	return errors.Is(err, ErrStaticMutation) ||
		errors.Is(err, ErrArchetypeDrift) ||
		errors.Is(err, ErrUnknownOverride) ||
		errors.Is(err, ErrRedundantValue)
}

// IsPrecondition checks if an error is a caller precondition violation
func IsPrecondition(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorPrecondition
	}

	return errors.Is(err, ErrAlreadyInitialized) ||
		errors.Is(err, ErrAlreadyDisposed) ||
		errors.Is(err, ErrAlreadyPopulated) ||
		errors.Is(err, ErrUnknownElement) ||
		errors.Is(err, ErrUnbalancedBracket)
}

// IsDiagnostic checks if an error is a soft, collectable diagnostic
func IsDiagnostic(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorDiagnostic
	}

	return errors.Is(err, ErrMissingName)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if IsContract(err) {
		return ErrorContract
	}
	if IsPrecondition(err) {
		return ErrorPrecondition
	}
	if IsDiagnostic(err) {
		return ErrorDiagnostic
	}

	// Unknown failures in a contract layer are treated as consistency
	// violations, never retried.
	return ErrorStructural
}

// newClassified creates a new classified error.
// This is an internal helper - use the Wrap* variants instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapStructural wraps an error as a structural violation with context
func WrapStructural(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorStructural, wrappedErr, component, method, wrappedErr.Error())
}

// WrapContract wraps an error as a contract violation with context
func WrapContract(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorContract, wrappedErr, component, method, wrappedErr.Error())
}

// WrapPrecondition wraps an error as a precondition violation with context
func WrapPrecondition(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorPrecondition, wrappedErr, component, method, wrappedErr.Error())
}

// WrapDiagnostic wraps an error as a collectable diagnostic with context
func WrapDiagnostic(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorDiagnostic, wrappedErr, component, method, wrappedErr.Error())
}
