package validation

import (
	"fmt"
	"sort"

	"github.com/c360/statekit/element"
	"github.com/c360/statekit/naming"
)

// Baseline is the frozen reference API surface: exact expected metadata per
// element path.
type Baseline map[string]element.Metadata

// Overrides is a sparse patch of intentional deviations from the baseline,
// keyed by element path; each entry maps metadata keys to replacement
// values.
type Overrides map[string]map[string]any

// comparisonKeys is the fixed metadata key set compared between a dynamic
// element and its archetype, and diffed between overrides and baseline.
// Path, dynamic and archetype flags are positional and excluded.
var comparisonKeys = []string{
	"typeName",
	"state",
	"readOnly",
	"featured",
	"eventCategory",
	"highFrequency",
}

// comparableMetadata projects a metadata struct onto the fixed key set.
func comparableMetadata(m element.Metadata) map[string]any {
	return map[string]any{
		"typeName":      m.TypeName,
		"state":         m.State,
		"readOnly":      m.ReadOnly,
		"featured":      m.Featured,
		"eventCategory": m.EventCategory,
		"highFrequency": m.HighFrequency,
	}
}

// Snapshot produces a baseline document from a live registry by collecting
// the declared metadata of every element bound in the naming tree. Paths
// come out deterministic regardless of tree-walk order because the map is
// keyed, but SortedPaths is provided for stable serialization.
func Snapshot(registry *naming.Registry) Baseline {
	baseline := make(Baseline)
	registry.Root().WalkSubtree(func(n *naming.Node) {
		inst, ok := n.Owner().(Instrumented)
		if !ok {
			return
		}
		baseline[n.Path()] = inst.Metadata()
	})
	return baseline
}

// SortedPaths returns the baseline's paths in lexical order.
func (b Baseline) SortedPaths() []string {
	paths := make([]string, 0, len(b))
	for path := range b {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ValidateOverrides diffs an overrides document against the baseline and
// reports every rule violation through the validator funnel: an override
// path must exist in the baseline, an override key must name a comparable
// metadata field, and an override value must differ from the baseline value
// it replaces. A stale no-op override indicates configuration drift and is
// itself an error.
func (v *Validator) ValidateOverrides(baseline Baseline, overrides Overrides) {
	if !v.Enabled() {
		return
	}

	for _, path := range sortedOverridePaths(overrides) {
		patch := overrides[path]
		meta, exists := baseline[path]
		if !exists {
			v.report(Violation{
				Kind:   KindUnknownOverride,
				Path:   path,
				Detail: "override targets a path absent from the baseline",
			})
			continue
		}

		current := comparableMetadata(meta)
		for _, key := range sortedPatchKeys(patch) {
			value := patch[key]
			baselineValue, known := current[key]
			if !known {
				v.report(Violation{
					Kind:   KindUnknownOverride,
					Path:   path,
					Detail: fmt.Sprintf("override names unknown metadata key %q", key),
				})
				continue
			}
			if value == baselineValue {
				v.report(Violation{
					Kind:   KindRedundantOverride,
					Path:   path,
					Detail: fmt.Sprintf("override of %q equals the baseline value %v", key, baselineValue),
				})
			}
		}
	}
}

func sortedOverridePaths(overrides Overrides) []string {
	paths := make([]string, 0, len(overrides))
	for path := range overrides {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func sortedPatchKeys(patch map[string]any) []string {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
