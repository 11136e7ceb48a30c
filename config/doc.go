// Package config loads and validates session configuration and the
// baseline/overrides reference documents. Configuration files are JSON or
// YAML, selected by extension; documents are schema-checked against
// embedded meta-schemas before they are decoded, so malformed documents
// fail at load time with precise messages. SafeConfig wraps a Config for
// concurrent readers with atomic validated updates.
package config
