package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/statekit/validation"
)

// baselineSchema is the meta-schema every baseline document must satisfy:
// a map from element path to its full declared metadata. Unknown metadata
// keys are rejected here so typos fail at load time rather than surfacing
// as spurious diff violations later.
const baselineSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"required": ["path", "typeName"],
		"properties": {
			"path":          {"type": "string", "minLength": 1},
			"typeName":      {"type": "string", "minLength": 1},
			"state":         {"type": "boolean"},
			"readOnly":      {"type": "boolean"},
			"featured":      {"type": "boolean"},
			"dynamic":       {"type": "boolean"},
			"archetype":     {"type": "boolean"},
			"eventCategory": {"type": "string", "enum": ["model", "user", "wrapper", "optOut"]},
			"highFrequency": {"type": "boolean"}
		},
		"additionalProperties": false
	}
}`

// overridesSchema is the meta-schema for the sparse overrides document: a
// map from element path to a non-empty patch over the comparable metadata
// keys. Positional keys (path, dynamic, archetype) are not overridable.
const overridesSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"minProperties": 1,
		"properties": {
			"typeName":      {"type": "string", "minLength": 1},
			"state":         {"type": "boolean"},
			"readOnly":      {"type": "boolean"},
			"featured":      {"type": "boolean"},
			"eventCategory": {"type": "string", "enum": ["model", "user", "wrapper", "optOut"]},
			"highFrequency": {"type": "boolean"}
		},
		"additionalProperties": false
	}
}`

// LoadBaseline reads, schema-checks, and decodes a baseline document.
// JSON and YAML files are accepted, chosen by extension.
func LoadBaseline(path string) (validation.Baseline, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	if err := validateDocument(baselineSchema, doc); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", path, err)
	}

	var baseline validation.Baseline
	if err := decodeDocument(doc, &baseline); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", path, err)
	}
	return baseline, nil
}

// LoadOverrides reads, schema-checks, and decodes an overrides document.
func LoadOverrides(path string) (validation.Overrides, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}
	if err := validateDocument(overridesSchema, doc); err != nil {
		return nil, fmt.Errorf("overrides %s: %w", path, err)
	}

	var overrides validation.Overrides
	if err := decodeDocument(doc, &overrides); err != nil {
		return nil, fmt.Errorf("overrides %s: %w", path, err)
	}
	return overrides, nil
}

// validateDocument checks a parsed document against a meta-schema and
// collects every violation into one error.
func validateDocument(schema string, doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return fmt.Errorf("document violates schema: %s", strings.Join(messages, "; "))
}

// decodeDocument converts a schema-checked generic document into its typed
// form via a JSON round trip. YAML input decodes to the same generic shape
// as JSON input, so one conversion path serves both.
func decodeDocument(doc, target any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize document: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
