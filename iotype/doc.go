// Package iotype implements the declarative wire contracts for
// instrumented runtime values: validation predicates, state schemas,
// serialization bundles, parametric type families and a declared-method
// surface.
//
// # Contracts
//
// A Type names a class of runtime values and describes their serialized
// form. Types form a single-inheritance chain rooted at ObjectType; a
// subtype that declares neither a custom serializer nor a composite schema
// inherits its ancestor's behavior verbatim. Serialization and metadata
// defaults are resolved by explicit delegation up the chain, never by
// reflection.
//
// # Schemas
//
// A Schema is either a value form (one predicate over the whole wire
// value, used by leaf types such as NumberType) or a composite form (an
// ordered mapping from field name to field type). Composite validation
// requires every declared field and, at the entry point of a check,
// rejects undeclared keys; nested levels stay permissive so subtypes can
// add fields without restating ancestor schemas.
//
// # Parametric families
//
// ArrayOf, NullableOf and MapOf construct generic contracts memoized in a
// Cache: requesting the same parameterization twice returns the identical
// *Type, so downstream code may compare types by pointer.
//
// # Wire format
//
// Every serialized state is a JSON-compatible value tree. Non-finite
// numbers travel as the reserved sentinels "POSITIVE_INFINITY" and
// "NEGATIVE_INFINITY" and round-trip exactly.
package iotype
