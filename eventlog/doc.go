// Package eventlog records causally-scoped event brackets for instrumented
// elements. Brackets nest like a stack; every Start must be matched by an
// End presenting the token Start returned, and balance is verified at frame
// boundaries with CheckBalanced.
//
// A Recorder optionally publishes bracket edges to NATS on the subject
// events.<session>.<path>. High-frequency brackets can be statically
// suppressed or rate-limited without affecting balance tracking.
package eventlog
