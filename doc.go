// Package statekit is an instrumentation core for interactive simulations:
// a stable naming tree over runtime objects, shared serialization type
// contracts, recorded event brackets, dynamic element containers, and an
// API validator that pins the instrumented surface against a frozen
// baseline.
//
// The packages compose bottom-up: naming assigns durable dotted paths,
// iotype carries the type and state-schema contracts, element binds both
// into an instrumented-object lifecycle, container manages homogeneous
// dynamic collections, eventlog records nestable event brackets, and
// validation enforces the cross-cutting API rules. session bundles the
// shared infrastructure for one program; cmd/statekit checks baseline and
// overrides documents offline.
package statekit
