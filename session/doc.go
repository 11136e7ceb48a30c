// Package session wires the instrumentation infrastructure into one
// dependency-injected bundle: naming registry, type cache, API validator,
// event recorder, and metrics. Sessions drive the two one-way phase
// transitions, Launch and MarkStartupComplete. Default provides a lazily
// built process-wide session for entry points that do not compose their
// own.
package session
