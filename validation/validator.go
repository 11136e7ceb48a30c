package validation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360/statekit/element"
	"github.com/c360/statekit/errors"
	"github.com/c360/statekit/iotype"
	"github.com/c360/statekit/metric"
	"github.com/c360/statekit/naming"
)

// Kind names one class of API violation.
type Kind string

const (
	// KindDuplicateTypeName flags two distinct type instances sharing a
	// display name.
	KindDuplicateTypeName Kind = "duplicateTypeName"
	// KindStaticRegistration flags a non-dynamic registration after
	// startup completed.
	KindStaticRegistration Kind = "staticRegistration"
	// KindStaticDeregistration flags any non-dynamic deregistration.
	KindStaticDeregistration Kind = "staticDeregistration"
	// KindArchetypeDrift flags a dynamic element whose metadata differs
	// from its container's archetype.
	KindArchetypeDrift Kind = "archetypeDrift"
	// KindUnknownOverride flags an override with no baseline entry.
	KindUnknownOverride Kind = "unknownOverride"
	// KindRedundantOverride flags an override equal to the baseline value.
	KindRedundantOverride Kind = "redundantOverride"
)

// Violation is one recorded API-contract failure.
type Violation struct {
	Kind   Kind   `json:"kind"`
	Path   string `json:"path"`
	Detail string `json:"detail"`
}

// Instrumented is the validator's view of a registered element. The
// concrete *element.Element satisfies it; the registry hands the validator
// naming.Registrable values which are asserted up to this interface.
type Instrumented interface {
	naming.Registrable
	Metadata() element.Metadata
	Type() *iotype.Type
	DynamicElement() bool
	IsArchetype() bool
}

// Validator is a cross-cutting observer of registry traffic. It enforces
// type-name uniqueness, the closed-API rule after startup, static-element
// permanence, and archetype conformance for dynamic elements. A disabled
// validator skips every check silently.
//
// This is a development/CI-time contract checker: violations are recorded
// and logged through one funnel, and Err surfaces them to the caller.
type Validator struct {
	mu              sync.Mutex
	enabled         bool
	startupComplete bool
	typeNames       map[string]*iotype.Type
	violations      []Violation
	logger          *slog.Logger
	metrics         *metric.Metrics
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// Disabled turns every check into a silent no-op.
func Disabled() ValidatorOption {
	return func(v *Validator) {
		v.enabled = false
	}
}

// WithLogger sets the structured logger for the violation funnel.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithMetrics wires per-kind violation counters.
func WithMetrics(m *metric.Metrics) ValidatorOption {
	return func(v *Validator) {
		v.metrics = m
	}
}

// NewValidator creates an enabled validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		enabled:   true,
		typeNames: make(map[string]*iotype.Type),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether checks run.
func (v *Validator) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

// MarkStartupComplete closes the static API surface: every later
// non-dynamic registration is a violation.
func (v *Validator) MarkStartupComplete() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.startupComplete = true
}

// ElementRegistered implements naming.Listener.
func (v *Validator) ElementRegistered(obj naming.Registrable) {
	if !v.Enabled() {
		return
	}
	inst, ok := obj.(Instrumented)
	if !ok {
		return
	}
	path := inst.Node().Path()

	v.checkTypeName(inst, path)

	v.mu.Lock()
	startupComplete := v.startupComplete
	v.mu.Unlock()
	if startupComplete && !inst.DynamicElement() && !inst.IsArchetype() {
		v.report(Violation{
			Kind:   KindStaticRegistration,
			Path:   path,
			Detail: "static element registered after startup completed",
		})
	}

	if inst.DynamicElement() {
		v.checkArchetypeConformance(inst, path)
	}
}

// ElementDeregistered implements naming.Listener.
func (v *Validator) ElementDeregistered(obj naming.Registrable) {
	if !v.Enabled() {
		return
	}
	inst, ok := obj.(Instrumented)
	if !ok {
		return
	}
	if !inst.DynamicElement() {
		v.report(Violation{
			Kind:   KindStaticDeregistration,
			Path:   inst.Node().Path(),
			Detail: "static element deregistered; static elements exist for the process lifetime",
		})
	}
}

// checkTypeName guards against two structurally different types sharing a
// display name: the first-seen instance per name wins, every later distinct
// instance is a violation.
func (v *Validator) checkTypeName(inst Instrumented, path string) {
	typ := inst.Type()
	if typ == nil {
		return
	}
	name := typ.TypeName()

	v.mu.Lock()
	first, seen := v.typeNames[name]
	if !seen {
		v.typeNames[name] = typ
	}
	v.mu.Unlock()

	if seen && first != typ {
		v.report(Violation{
			Kind:   KindDuplicateTypeName,
			Path:   path,
			Detail: fmt.Sprintf("type name %q already bound to a different type instance", name),
		})
	}
}

// checkArchetypeConformance compares a dynamic element's declared metadata
// against its container's archetype over the fixed comparison key set.
func (v *Validator) checkArchetypeConformance(inst Instrumented, path string) {
	archetype := findArchetype(inst.Node())
	if archetype == nil {
		return
	}

	got := comparableMetadata(inst.Metadata())
	want := comparableMetadata(archetype.Metadata())
	for _, key := range comparisonKeys {
		if got[key] != want[key] {
			v.report(Violation{
				Kind: KindArchetypeDrift,
				Path: path,
				Detail: fmt.Sprintf("metadata %q is %v, archetype declares %v",
					key, got[key], want[key]),
			})
		}
	}
}

// findArchetype walks up from a dynamic element's node to its container and
// returns the archetype element bound there, if any.
func findArchetype(node *naming.Node) Instrumented {
	parent := node.Parent()
	if parent == nil {
		return nil
	}
	archNode := parent.Child(naming.ArchetypeName)
	if archNode == nil {
		return nil
	}
	archetype, ok := archNode.Owner().(Instrumented)
	if !ok {
		return nil
	}
	return archetype
}

// report is the single funnel every violation passes through.
func (v *Validator) report(violation Violation) {
	v.logger.Error("api validation failed",
		"kind", string(violation.Kind),
		"path", violation.Path,
		"detail", violation.Detail,
	)
	v.metrics.RecordViolation(string(violation.Kind))

	v.mu.Lock()
	v.violations = append(v.violations, violation)
	v.mu.Unlock()
}

// Violations returns the recorded violations in report order.
func (v *Validator) Violations() []Violation {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Violation, len(v.violations))
	copy(out, v.violations)
	return out
}

// Err returns a contract error when any violation has been recorded.
func (v *Validator) Err() error {
	v.mu.Lock()
	count := len(v.violations)
	var first Violation
	if count > 0 {
		first = v.violations[0]
	}
	v.mu.Unlock()

	if count == 0 {
		return nil
	}
	return errors.WrapContract(
		fmt.Errorf("%d api violations recorded, first: %s at %s", count, first.Kind, first.Path),
		"Validator", "Err", "violation check")
}
